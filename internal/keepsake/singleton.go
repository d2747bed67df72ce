package keepsake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Singleton is a kind that holds exactly one record, such as the user
// profile or the settings. A default is created on first read.
type Singleton[T any, P entity[T]] struct {
	kind Kind
	env  *env
	seed func() T
}

func newSingleton[T any, P entity[T]](kind Kind, e *env, seed func() T) *Singleton[T, P] {
	return &Singleton[T, P]{kind: kind, env: e, seed: seed}
}

// Kind returns the singleton's kind.
func (s *Singleton[T, P]) Kind() Kind { return s.kind }

// decodeSingleton accepts both a JSON object and the older one-element array
// shape.
func decodeSingleton[T any](raw []byte) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := decodeInto(trimmed, &list); err != nil {
			return v, err
		}
		if len(list) == 0 {
			return v, ErrNotFound
		}
		return list[0], nil
	}
	err := decodeInto(trimmed, &v)
	return v, err
}

// Peek returns the stored value without creating a default.
func (s *Singleton[T, P]) Peek() (T, bool) {
	var zero T
	raw, ok := s.env.ks.GetRaw(s.kind.StorageKey())
	if !ok {
		return zero, false
	}
	v, err := decodeSingleton[T](raw)
	if err != nil {
		s.env.logger.Warn("stored value is corrupt, treating as empty", "key", s.kind.StorageKey(), "error", err)
		return zero, false
	}
	return v, true
}

// Get returns the stored value, creating and persisting the default when
// none exists. A failed write still returns the default.
func (s *Singleton[T, P]) Get() T {
	if v, ok := s.Peek(); ok {
		return v
	}
	v := s.fresh()
	if err := s.persist(v); err != nil {
		s.env.logger.Warn("persisting default failed", "kind", s.kind.String(), "error", err)
	}
	return v
}

func (s *Singleton[T, P]) fresh() T {
	v := s.seed()
	s.stamp(&v)
	return v
}

func (s *Singleton[T, P]) stamp(v *T) {
	meta := P(v).Meta()
	now := s.env.clock.Now().UTC()
	if meta.ID == "" {
		meta.ID = s.env.idgen.New()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
}

func (s *Singleton[T, P]) persist(v T) error {
	if err := s.env.ks.Set(s.kind.StorageKey(), v); err != nil {
		return fmt.Errorf("saving %s: %w", s.kind, err)
	}
	return nil
}

// Save writes v over the stored value. When a value already exists the
// serialized fields of v are merged over it and the stored id and createdAt
// are kept; otherwise v is stored as new.
func (s *Singleton[T, P]) Save(v T) (string, error) {
	patch, err := toDocument(v)
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", s.kind, err)
	}
	return s.merge(patch)
}

// Update merges fields into the stored value. With nothing stored, the
// fields are applied to a fresh default.
func (s *Singleton[T, P]) Update(fields Fields) error {
	_, err := s.merge(Document(fields))
	return err
}

func (s *Singleton[T, P]) merge(patch Document) (string, error) {
	patch = Document(maps.Clone(patch))
	delete(patch, "id")
	delete(patch, "createdAt")

	base, ok := s.Peek()
	if !ok {
		base = s.fresh()
	}
	merged, err := mergeInto(base, patch)
	if err != nil {
		return "", fmt.Errorf("merging %s: %w", s.kind, err)
	}
	s.stamp(&merged)
	if err := s.persist(merged); err != nil {
		return "", err
	}
	s.env.written(s.kind)
	return P(&merged).Meta().ID, nil
}

// Reset removes the stored value; the next Get recreates the default.
func (s *Singleton[T, P]) Reset() error {
	if err := s.env.ks.Remove(s.kind.StorageKey()); err != nil {
		return fmt.Errorf("resetting %s: %w", s.kind, err)
	}
	return nil
}

// Count is 1 when a value is stored and 0 otherwise.
func (s *Singleton[T, P]) Count() int {
	if _, ok := s.Peek(); ok {
		return 1
	}
	return 0
}

// Statistics summarizes the stored value as a one-record collection.
func (s *Singleton[T, P]) Statistics(recent int) Statistics {
	v, ok := s.Peek()
	if !ok {
		return computeStatistics(nil, nil, recent)
	}
	doc, _ := toDocument(v)
	return computeStatistics([]Record{*P(&v).Meta()}, []Document{doc}, recent)
}

func (s *Singleton[T, P]) documents() []Document {
	v, ok := s.Peek()
	if !ok {
		return []Document{}
	}
	doc, err := toDocument(v)
	if err != nil {
		return []Document{}
	}
	return []Document{doc}
}

func (s *Singleton[T, P]) exportValue() any {
	v, ok := s.Peek()
	if !ok {
		return nil
	}
	doc, err := toDocument(v)
	if err != nil {
		return nil
	}
	return doc
}

func (s *Singleton[T, P]) document(id string) (Document, bool) {
	v, ok := s.Peek()
	if !ok || (id != "" && P(&v).Meta().ID != id) {
		return nil, false
	}
	doc, err := toDocument(v)
	return doc, err == nil
}

func (s *Singleton[T, P]) saveDocument(doc Document) (string, error) {
	return s.merge(doc)
}

func (s *Singleton[T, P]) update(id string, fields Fields) error {
	if v, ok := s.Peek(); ok && id != "" && P(&v).Meta().ID != id {
		return fmt.Errorf("updating %s %s: %w", s.kind, id, ErrNotFound)
	}
	return s.Update(fields)
}

func (s *Singleton[T, P]) remove(id string) error {
	v, ok := s.Peek()
	if !ok || (id != "" && P(&v).Meta().ID != id) {
		return fmt.Errorf("deleting %s %s: %w", s.kind, id, ErrNotFound)
	}
	if err := s.Reset(); err != nil {
		return err
	}
	s.env.written(s.kind)
	return nil
}

func (s *Singleton[T, P]) search(query string, fields []string) []Document {
	docs := s.documents()
	if query == "" {
		return docs
	}
	var out []Document
	for _, d := range docs {
		if d.matches(strings.ToLower(query), fields) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Singleton[T, P]) clear() error { return s.Reset() }

func (s *Singleton[T, P]) stageImport(raw json.RawMessage) (stagedImport, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errEmptyImport
	}
	v, err := decodeSingleton[T](trimmed)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.kind, err)
	}
	return &singletonImport[T, P]{s: s, value: v}, nil
}

type singletonImport[T any, P entity[T]] struct {
	s     *Singleton[T, P]
	value T
}

func (si *singletonImport[T, P]) apply(mode ImportMode) (KindImportResult, error) {
	s := si.s
	v := si.value

	switch mode {
	case ImportOverwrite:
		s.stamp(&v)
		if err := s.persist(v); err != nil {
			return KindImportResult{}, err
		}
		return KindImportResult{Action: ActionOverwrite, Count: 1}, nil

	case ImportMerge:
		local, ok := s.Peek()
		if !ok {
			s.stamp(&v)
			if err := s.persist(v); err != nil {
				return KindImportResult{}, err
			}
			return KindImportResult{Action: ActionMerge, ImportedCount: 1, NewCount: 1, FinalCount: 1}, nil
		}
		// Local fields win; the import only fills gaps.
		localDoc, err := toDocument(local)
		if err != nil {
			return KindImportResult{}, err
		}
		merged, err := mergeInto(v, localDoc)
		if err != nil {
			return KindImportResult{}, fmt.Errorf("merging %s: %w", s.kind, err)
		}
		if err := s.persist(merged); err != nil {
			return KindImportResult{}, err
		}
		return KindImportResult{Action: ActionMerge, ExistingCount: 1, ImportedCount: 1, FinalCount: 1}, nil
	}

	return KindImportResult{Action: ActionSkip, Reason: "neither merge nor overwrite requested"}, nil
}

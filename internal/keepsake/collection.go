package keepsake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// entity is satisfied by a pointer to any record struct embedding Record.
type entity[T any] interface {
	*T
	Meta() *Record
}

// env is the shared plumbing every collection is built on.
type env struct {
	ks      *KeyStore
	clock   Clock
	idgen   IDGenerator
	logger  Logger
	onWrite func(Kind)
}

func (e *env) written(k Kind) {
	if e.onWrite != nil {
		e.onWrite(k)
	}
}

// BatchResult is the outcome of one item of a batch save or delete.
type BatchResult struct {
	ID  string
	Err error
}

// errNotArray marks import data for a list collection that is not a JSON array.
var errNotArray = errors.New("collection data is not an array")

// Collection is an ordered list of records of one Kind persisted under a
// single key. Every write rewrites the whole list.
type Collection[T any, P entity[T]] struct {
	kind Kind
	max  int
	env  *env
}

func newCollection[T any, P entity[T]](kind Kind, max int, e *env) *Collection[T, P] {
	return &Collection[T, P]{kind: kind, max: max, env: e}
}

// Kind returns the collection's kind.
func (c *Collection[T, P]) Kind() Kind { return c.kind }

// Max returns the capacity cap; 0 means unbounded.
func (c *Collection[T, P]) Max() int { return c.max }

func (c *Collection[T, P]) load() []T {
	var items []T
	if !c.env.ks.Get(c.kind.StorageKey(), &items) || items == nil {
		return []T{}
	}
	return items
}

func (c *Collection[T, P]) persist(items []T) error {
	if err := c.env.ks.Set(c.kind.StorageKey(), items); err != nil {
		return fmt.Errorf("saving %s: %w", c.kind, err)
	}
	return nil
}

func (c *Collection[T, P]) index(items []T, id string) int {
	for i := range items {
		if P(&items[i]).Meta().ID == id {
			return i
		}
	}
	return -1
}

// evict drops the oldest records until the list fits the cap.
func (c *Collection[T, P]) evict(items []T) []T {
	if c.max <= 0 || len(items) <= c.max {
		return items
	}
	n := len(items) - c.max
	c.env.logger.Debug("collection at capacity, evicting oldest", "kind", c.kind.String(), "evicted", n)
	return items[n:]
}

// stamp fills in a missing id and timestamps on a record about to be appended.
func (c *Collection[T, P]) stamp(item *T) {
	meta := P(item).Meta()
	now := c.env.clock.Now().UTC()
	if meta.ID == "" {
		meta.ID = c.env.idgen.New()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = now
	}
}

// List returns all records in insertion order. A missing or corrupt
// collection reads as empty.
func (c *Collection[T, P]) List() []T { return c.load() }

// Count returns the number of stored records.
func (c *Collection[T, P]) Count() int { return len(c.load()) }

// Get returns the record with the given id.
func (c *Collection[T, P]) Get(id string) (T, bool) {
	items := c.load()
	if i := c.index(items, id); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// Save creates or merges a record and returns its id.
//
// Without an id the record is created with a fresh id and creation time.
// With an id that already exists, every field the record serializes is
// written over the stored one (empty omitempty fields are left alone); id and
// createdAt never change. With an unknown id the record is appended as new.
// Appends that push the collection past its cap evict the oldest records.
func (c *Collection[T, P]) Save(item T) (string, error) {
	items := c.load()
	meta := P(&item).Meta()

	if meta.ID != "" {
		if i := c.index(items, meta.ID); i >= 0 {
			patch, err := toDocument(item)
			if err != nil {
				return "", fmt.Errorf("saving %s %s: %w", c.kind, meta.ID, err)
			}
			if err := c.apply(items, i, patch); err != nil {
				return "", err
			}
			return meta.ID, nil
		}
	}

	c.stamp(&item)
	P(&item).Meta().UpdatedAt = c.env.clock.Now().UTC()
	items = c.evict(append(items, item))
	if err := c.persist(items); err != nil {
		return "", err
	}
	c.env.written(c.kind)
	return P(&item).Meta().ID, nil
}

// apply merges patch into items[i], refreshes updatedAt and persists.
func (c *Collection[T, P]) apply(items []T, i int, patch Document) error {
	patch = Document(maps.Clone(patch))
	delete(patch, "id")
	delete(patch, "createdAt")

	id := P(&items[i]).Meta().ID
	merged, err := mergeInto(items[i], patch)
	if err != nil {
		return fmt.Errorf("merging %s %s: %w", c.kind, id, err)
	}
	P(&merged).Meta().UpdatedAt = c.env.clock.Now().UTC()
	items[i] = merged

	if err := c.persist(items); err != nil {
		return err
	}
	c.env.written(c.kind)
	return nil
}

// Update merges fields into the record with the given id.
// Returns ErrNotFound if no record matches.
func (c *Collection[T, P]) Update(id string, fields Fields) error {
	items := c.load()
	i := c.index(items, id)
	if i < 0 {
		return fmt.Errorf("updating %s %s: %w", c.kind, id, ErrNotFound)
	}
	return c.apply(items, i, Document(fields))
}

// Delete removes the record with the given id.
// Returns ErrNotFound if no record matches, on every call.
func (c *Collection[T, P]) Delete(id string) error {
	items := c.load()
	i := c.index(items, id)
	if i < 0 {
		return fmt.Errorf("deleting %s %s: %w", c.kind, id, ErrNotFound)
	}
	if err := c.persist(slices.Delete(items, i, i+1)); err != nil {
		return err
	}
	c.env.written(c.kind)
	return nil
}

// SaveBatch saves each item in order and reports a result per item.
func (c *Collection[T, P]) SaveBatch(items []T) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	for _, it := range items {
		id, err := c.Save(it)
		results = append(results, BatchResult{ID: id, Err: err})
	}
	return results
}

// DeleteBatch deletes each id in order and reports a result per id.
func (c *Collection[T, P]) DeleteBatch(ids []string) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, BatchResult{ID: id, Err: c.Delete(id)})
	}
	return results
}

// Search returns records containing query as a case-insensitive substring.
// With no fields every top-level string field is checked; fields may be
// dot paths into nested objects such as "photoData.name".
func (c *Collection[T, P]) Search(query string, fields ...string) []T {
	items := c.load()
	if query == "" {
		return items
	}
	term := strings.ToLower(query)
	var out []T
	for _, it := range items {
		doc, err := toDocument(it)
		if err != nil {
			continue
		}
		if doc.matches(term, fields) {
			out = append(out, it)
		}
	}
	return out
}

// Filter returns the records for which keep returns true.
func (c *Collection[T, P]) Filter(keep func(T) bool) []T {
	var out []T
	for _, it := range c.load() {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Sorted returns a sorted copy of the records; stored order is unchanged.
func (c *Collection[T, P]) Sorted(cmp func(a, b T) int) []T {
	items := c.load()
	slices.SortStableFunc(items, cmp)
	return items
}

// Statistics summarizes the collection; recent bounds the number of newest
// records returned.
func (c *Collection[T, P]) Statistics(recent int) Statistics {
	items := c.load()
	metas := make([]Record, len(items))
	docs := make([]Document, len(items))
	for i := range items {
		metas[i] = *P(&items[i]).Meta()
		docs[i], _ = toDocument(items[i])
	}
	return computeStatistics(metas, docs, recent)
}

// Clear removes every record.
func (c *Collection[T, P]) Clear() error {
	if err := c.persist([]T{}); err != nil {
		return err
	}
	c.env.written(c.kind)
	return nil
}

// replace stores items wholesale, trimming to the cap.
func (c *Collection[T, P]) replace(items []T) error {
	return c.persist(c.evict(items))
}

func (c *Collection[T, P]) documents() []Document {
	items := c.load()
	docs := make([]Document, 0, len(items))
	for _, it := range items {
		doc, err := toDocument(it)
		if err != nil {
			c.env.logger.Warn("skipping unencodable record", "kind", c.kind.String(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func (c *Collection[T, P]) exportValue() any { return c.documents() }

func (c *Collection[T, P]) document(id string) (Document, bool) {
	it, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	doc, err := toDocument(it)
	return doc, err == nil
}

// saveDocument merges doc field by field into an existing record with the
// same id, so fields the document leaves out keep their stored values. Other
// documents are decoded and saved as new records.
func (c *Collection[T, P]) saveDocument(doc Document) (string, error) {
	if id, ok := doc["id"].(string); ok && id != "" {
		items := c.load()
		if i := c.index(items, id); i >= 0 {
			if err := c.apply(items, i, doc); err != nil {
				return "", err
			}
			return id, nil
		}
	}

	var item T
	if err := fromDocument(doc, &item); err != nil {
		return "", fmt.Errorf("decoding %s: %w", c.kind, err)
	}
	return c.Save(item)
}

func (c *Collection[T, P]) update(id string, fields Fields) error { return c.Update(id, fields) }

func (c *Collection[T, P]) remove(id string) error { return c.Delete(id) }

func (c *Collection[T, P]) clear() error { return c.Clear() }

func (c *Collection[T, P]) search(query string, fields []string) []Document {
	var docs []Document
	for _, it := range c.Search(query, fields...) {
		if doc, err := toDocument(it); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

func (c *Collection[T, P]) stageImport(raw json.RawMessage) (stagedImport, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	var items []T
	if err := decodeInto(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.kind, err)
	}
	return &collectionImport[T, P]{c: c, items: items}, nil
}

// collectionImport is parsed import data waiting to be applied.
type collectionImport[T any, P entity[T]] struct {
	c     *Collection[T, P]
	items []T
}

func (ci *collectionImport[T, P]) apply(mode ImportMode) (KindImportResult, error) {
	c := ci.c
	incoming := slices.Clone(ci.items)
	for i := range incoming {
		c.stamp(&incoming[i])
	}
	incoming = uniqueByID[T, P](incoming)

	switch mode {
	case ImportOverwrite:
		if err := c.replace(incoming); err != nil {
			return KindImportResult{}, err
		}
		return KindImportResult{Action: ActionOverwrite, Count: len(incoming)}, nil

	case ImportMerge:
		existing := c.load()
		seen := make(map[string]bool, len(existing)+len(incoming))
		for i := range existing {
			seen[P(&existing[i]).Meta().ID] = true
		}
		added := 0
		merged := existing
		for i := range incoming {
			id := P(&incoming[i]).Meta().ID
			if seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, incoming[i])
			added++
		}
		merged = c.evict(merged)
		if err := c.persist(merged); err != nil {
			return KindImportResult{}, err
		}
		return KindImportResult{
			Action:        ActionMerge,
			ExistingCount: len(existing),
			ImportedCount: len(incoming),
			NewCount:      added,
			FinalCount:    len(merged),
		}, nil
	}

	return KindImportResult{Action: ActionSkip, Reason: "neither merge nor overwrite requested"}, nil
}

// uniqueByID keeps the first record for each id.
func uniqueByID[T any, P entity[T]](items []T) []T {
	seen := make(map[string]bool, len(items))
	return slices.DeleteFunc(items, func(it T) bool {
		id := P(&it).Meta().ID
		if seen[id] {
			return true
		}
		seen[id] = true
		return false
	})
}

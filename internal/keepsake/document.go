package keepsake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is the generic JSON shape of a record, used for type-keyed
// operations, nested-field search and export.
type Document map[string]any

// toDocument converts any record value into its JSON object form.
func toDocument(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return doc, nil
}

// fromDocument decodes a generic document into dst.
func fromDocument(doc Document, dst any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// overlay returns base with every top-level key of patch written over it.
// Keys absent from patch keep their base value.
func overlay(base, patch Document) Document {
	out := make(Document, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// mergeInto shallow-merges patch over existing and decodes the result as T.
func mergeInto[T any](existing T, patch Document) (T, error) {
	var merged T
	base, err := toDocument(existing)
	if err != nil {
		return merged, err
	}
	if err := fromDocument(overlay(base, patch), &merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// Lookup resolves a dot-separated path such as "photoData.name" or
// "answers.1" inside the document.
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// matches reports whether term (already lower-cased) is a substring of a
// string field. With no fields, every top-level string value is checked.
func (d Document) matches(term string, fields []string) bool {
	if len(fields) == 0 {
		for _, v := range d {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	}
	for _, f := range fields {
		v, ok := d.Lookup(f)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

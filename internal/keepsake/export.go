package keepsake

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	// FormatJSON is the round-trippable export document.
	FormatJSON ExportFormat = "json"
	// FormatText is a lossy human-readable summary.
	FormatText ExportFormat = "text"
)

// ParseExportFormat validates a format name. The empty string means JSON.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText, "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// MIMEType returns the content type of files in this format.
func (f ExportFormat) MIMEType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain"
	}
	return "application/octet-stream"
}

// Extension returns the file extension, without the dot.
func (f ExportFormat) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// PhotoPlaceholder replaces embedded photo data when an export omits photos.
const PhotoPlaceholder = "EXCLUDED_FROM_EXPORT"

// ExportOptions selects what Export writes. The zero value exports every
// exported kind as compact JSON with photos included.
type ExportOptions struct {
	Kinds      []Kind
	Format     ExportFormat
	OmitPhotos bool
	Indent     bool
}

// ExportMetadata describes an export document.
type ExportMetadata struct {
	ExportDate   time.Time    `json:"exportDate"`
	Version      string       `json:"version"`
	Platform     string       `json:"platform"`
	ExportFormat ExportFormat `json:"exportFormat"`
}

// ExportDocument is the JSON export and backup payload. Data maps a kind
// name to a list of records or, for singletons, a single object.
type ExportDocument struct {
	Metadata *ExportMetadata            `json:"metadata"`
	Data     map[string]json.RawMessage `json:"data"`
}

// ParseDocument decodes an export document. Malformed JSON is ErrParse; a
// document without metadata or data is ErrInvalidDocument.
func ParseDocument(b []byte) (*ExportDocument, error) {
	var doc ExportDocument
	if err := decodeInto(b, &doc); err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *ExportDocument) validate() error {
	if d == nil || d.Metadata == nil {
		return fmt.Errorf("%w: missing metadata", ErrInvalidDocument)
	}
	if d.Data == nil {
		return fmt.Errorf("%w: missing data", ErrInvalidDocument)
	}
	return nil
}

// ExportResult is the encoded export plus what a caller needs to save it.
type ExportResult struct {
	Content  []byte
	Format   ExportFormat
	Size     int64
	Kinds    []Kind
	Filename string
	MIMEType string
}

// Export encodes the selected kinds.
func (m *Manager) Export(opts ExportOptions) (*ExportResult, error) {
	format, err := ParseExportFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = ExportedKinds()
	}

	now := m.clock.Now().UTC()
	doc, err := m.buildDocument(kinds, format, opts.OmitPhotos, now)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case FormatText:
		content = []byte(m.formatText(doc.Metadata, kinds))
	default:
		if opts.Indent {
			content, err = json.MarshalIndent(doc, "", "  ")
		} else {
			content, err = json.Marshal(doc)
		}
		if err != nil {
			return nil, fmt.Errorf("encoding export: %w", err)
		}
	}

	return &ExportResult{
		Content:  content,
		Format:   format,
		Size:     int64(len(content)),
		Kinds:    kinds,
		Filename: fmt.Sprintf("keepsake-export-%s.%s", now.Format("20060102T150405Z"), format.Extension()),
		MIMEType: format.MIMEType(),
	}, nil
}

func (m *Manager) buildDocument(kinds []Kind, format ExportFormat, omitPhotos bool, now time.Time) (*ExportDocument, error) {
	doc := &ExportDocument{
		Metadata: &ExportMetadata{
			ExportDate:   now,
			Version:      m.migrator.Target(),
			Platform:     m.platform,
			ExportFormat: format,
		},
		Data: map[string]json.RawMessage{},
	}

	for _, k := range kinds {
		s, err := m.store(k)
		if err != nil {
			return nil, err
		}
		v := s.exportValue()
		if v == nil {
			continue
		}
		if k == KindPhotoAnalyses && omitPhotos {
			for _, d := range v.([]Document) {
				d["photo"] = PhotoPlaceholder
			}
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		doc.Data[k.String()] = raw
	}
	return doc, nil
}

func (m *Manager) formatText(meta *ExportMetadata, kinds []Kind) string {
	want := map[Kind]bool{}
	for _, k := range kinds {
		want[k] = true
	}

	var b strings.Builder
	b.WriteString("Keepsake data export\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Exported: %s\n", meta.ExportDate.Format(time.RFC1123))
	fmt.Fprintf(&b, "Version:  %s\n\n", meta.Version)

	rule := strings.Repeat("-", 30) + "\n"

	if photos := m.photos.List(); want[KindPhotoAnalyses] && len(photos) > 0 {
		b.WriteString("Photo analyses:\n" + rule)
		for i, p := range photos {
			name := "Untitled photo"
			if p.PhotoData != nil && p.PhotoData.Name != "" {
				name = p.PhotoData.Name
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
			fmt.Fprintf(&b, "   Created: %s\n", p.CreatedAt.Format(time.DateOnly))
			fmt.Fprintf(&b, "   Answers: %d\n\n", len(p.Answers))
		}
	}

	if chars := m.characters.List(); want[KindCharacterExplorations] && len(chars) > 0 {
		b.WriteString("Character explorations:\n" + rule)
		for i, c := range chars {
			fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(c.CharacterName, "Unnamed character"))
			fmt.Fprintf(&b, "   Relationship: %s\n", orDefault(c.Relationship, "unknown"))
			fmt.Fprintf(&b, "   Traits: %s\n\n", strings.Join(c.Traits, ", "))
		}
	}

	if skills := m.skills.List(); want[KindSkillHeritages] && len(skills) > 0 {
		b.WriteString("Skill heritages:\n" + rule)
		for i, s := range skills {
			fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(s.SkillName, "Unnamed skill"))
			fmt.Fprintf(&b, "   Category: %s\n", orDefault(s.Category, "uncategorized"))
			fmt.Fprintf(&b, "   Difficulty: %s\n\n", orDefault(s.Difficulty, "unknown"))
		}
	}

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

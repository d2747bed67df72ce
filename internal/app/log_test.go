package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKeepsakeHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "backup created",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tbackup created\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "seeding collection",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tseeding collection\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelInfo,
			message: "imported kind",
			attrs:   []slog.Attr{slog.String("kind", "photoAnalyses"), slog.Int("count", 42)},
			want:    "2024-06-15T14:30:45Z\tINFO\top-789\timported kind\tkind=photoAnalyses\tcount=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &keepsakeHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestKeepsakeHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &keepsakeHandler{w: &buf, opID: "op-1"}

	// Add pre-set attrs
	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "keystore")}).(*keepsakeHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "write", 0)
	r.AddAttrs(slog.String("key", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=keystore") {
		t.Errorf("expected pre-set attr component=keystore, got: %q", got)
	}
	if !strings.Contains(got, "key=abc") {
		t.Errorf("expected record attr key=abc, got: %q", got)
	}
}

func TestKeepsakeHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	h := &keepsakeHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*keepsakeHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestKeepsakeHandler_Enabled(t *testing.T) {
	h := &keepsakeHandler{min: slog.LevelWarn}

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := h.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("seeding collection", "kind", "settings")
	logger.Warn("persistent storage unavailable", "key", "photoAnalyses_v1")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	file := string(data)
	if !strings.Contains(file, "DEBUG\ttest-op\tseeding collection\tkind=settings") {
		t.Errorf("log file missing debug record: %q", file)
	}
	if !strings.Contains(file, "WARN\ttest-op\tpersistent storage unavailable") {
		t.Errorf("log file missing warn record: %q", file)
	}

	if strings.Contains(stderr.String(), "seeding collection") {
		t.Errorf("stderr got debug record: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "key=photoAnalyses_v1") {
		t.Errorf("stderr missing warn record: %q", stderr.String())
	}
}

func TestFanoutHandler_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := fanoutHandler{
		&keepsakeHandler{w: &a, opID: "op", min: slog.LevelDebug},
		&keepsakeHandler{w: &b, opID: "op", min: slog.LevelDebug},
	}
	logger := slog.New(h).With("session", "s1")
	logger.Info("hello")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), "session=s1") {
			t.Errorf("%s handler missing attr: %q", name, buf.String())
		}
	}
}

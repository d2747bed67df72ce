package app

import (
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	op := NewOperation("Export", "--format json", started)

	if op.ID != "20240115T093000Z" {
		t.Errorf("ID = %q, want %q", op.ID, "20240115T093000Z")
	}
	if op.Name != "Export" {
		t.Errorf("Name = %q, want %q", op.Name, "Export")
	}
	if op.Parameters != "--format json" {
		t.Errorf("Parameters = %q, want %q", op.Parameters, "--format json")
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
	if op.Mutating {
		t.Error("Mutating = true, want false")
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("Import", "", time.Now())
	if op.Failed() {
		t.Fatal("new operation reports failed")
	}
	op.Fail()
	if !op.Failed() {
		t.Error("Failed() = false after Fail()")
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want %q", op.Status, "error")
	}
}

package tracestore

import (
	"testing"

	"vanta/internal/vm"
)

func TestOpenRejectsDSNWithoutScheme(t *testing.T) {
	if _, err := Open("trace.db"); err == nil {
		t.Error("expected an error for a DSN with no scheme")
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open("oracle://trace.db"); err == nil {
		t.Error("expected an error for an unsupported scheme")
	}
}

func TestRecordPersistsTraceRows(t *testing.T) {
	s, err := Open("sqlite://file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.Record(vm.TraceEvent{PC: 0, Op: "LOAD_CONST", A1: 0, A2: 0, A3: -1, Depth: 1})
	s.Record(vm.TraceEvent{PC: 1, Op: "PRINT", A1: 0, A2: -1, A3: -1, Depth: 1})

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM vm_trace`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 {
		t.Errorf("row count = %d, want 2", count)
	}
}

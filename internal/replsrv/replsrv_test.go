package replsrv

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestEvalPersistsVariablesAcrossLines(t *testing.T) {
	var out bytes.Buffer
	s := New(strings.NewReader(""), &out, os.Stdin.Fd(), "")

	if err := s.Eval(`let x = 10;`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if err := s.Eval(`print(x + 5);`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := out.String(); got != "15\n" {
		t.Errorf("output = %q, want %q", got, "15\n")
	}
}

func TestStartReadsUntilExit(t *testing.T) {
	var out bytes.Buffer
	input := "let x = 1;\nprint(x);\nexit\nprint(99);\n"
	s := New(strings.NewReader(input), &out, os.Stdin.Fd(), "")
	s.Start()

	got := out.String()
	if !strings.Contains(got, "1\n") {
		t.Errorf("expected printed 1, got %q", got)
	}
	if strings.Contains(got, "99") {
		t.Errorf("lines after exit must not run, got %q", got)
	}
}

func TestEvalReportsParseErrors(t *testing.T) {
	var out bytes.Buffer
	s := New(strings.NewReader(""), &out, os.Stdin.Fd(), "")
	if err := s.Eval(`let = ;`); err == nil {
		t.Error("expected a parse error")
	}
}

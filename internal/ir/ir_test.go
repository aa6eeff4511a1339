package ir

import (
	"strings"
	"testing"

	"vanta/internal/value"
)

func noBuiltin(int) (string, bool) { return "", false }

func TestRegStringSentinels(t *testing.T) {
	cases := []struct {
		reg  int
		want string
	}{
		{PC, "PC"}, {V0, "V0"}, {T0, "T0"}, {0, "R0"}, {5, "R5"},
	}
	for _, c := range cases {
		if got := RegString(c.reg); got != c.want {
			t.Errorf("RegString(%d) = %q, want %q", c.reg, got, c.want)
		}
	}
}

func TestOpStringKnownAndUnknown(t *testing.T) {
	if ADD.String() != "ADD" {
		t.Errorf("ADD.String() = %q", ADD.String())
	}
	if Op(9999).String() != "UNKNOWN_OP" {
		t.Errorf("unknown op should render UNKNOWN_OP, got %q", Op(9999).String())
	}
}

func TestDisassembleRendersMainLabelAndInstructions(t *testing.T) {
	prog := &Program{
		Instructions: []Instruction{
			{Type: ITYPE, Op: LOAD_CONST, A1: 0, A2: 0, A3: -1},
			{Type: RTYPE, Op: PRINT, A1: 0, A2: -1, A3: -1},
			{Type: ITYPE, Op: END, A1: -1, A2: -1, A3: -1},
		},
		Consts: []value.Value{value.Int(42)},
	}
	out := Disassemble(prog, noBuiltin)
	if !strings.HasPrefix(out, "main\n") {
		t.Fatalf("disassembly must start with main label, got %q", out)
	}
	if !strings.Contains(out, "LOAD_CONST R0 42") {
		t.Errorf("missing LOAD_CONST rendering: %q", out)
	}
	if !strings.Contains(out, "PRINT R0") {
		t.Errorf("missing PRINT rendering: %q", out)
	}
	if !strings.Contains(out, "END") {
		t.Errorf("missing END rendering: %q", out)
	}
}

func TestDisassembleFunctionLabel(t *testing.T) {
	prog := &Program{
		Instructions: []Instruction{
			{Type: ITYPE, Op: END, A1: -1, A2: -1, A3: -1},
			{Type: JTYPE, Op: RET, A1: -1, A2: -1, A3: -1},
		},
		Funcs:      []FunctionInfo{{Name: "double", StartAddr: 1}},
		FuncStarts: map[int]string{1: "double"},
	}
	out := Disassemble(prog, noBuiltin)
	if !strings.Contains(out, "double\n") {
		t.Errorf("expected function label in disassembly, got %q", out)
	}
}

func TestDisassembleJumpfResolvesBuiltinAndFunctionNames(t *testing.T) {
	builtinName := func(fid int) (string, bool) {
		if fid == -1 {
			return "append", true
		}
		return "", false
	}
	prog := &Program{
		Instructions: []Instruction{
			{Type: JTYPE, Op: JUMPF, A1: -1, A2: -1, A3: -1},
			{Type: JTYPE, Op: JUMPF, A1: 0, A2: -1, A3: -1},
		},
		Funcs: []FunctionInfo{{Name: "square", StartAddr: 5}},
	}
	out := Disassemble(prog, builtinName)
	if !strings.Contains(out, "JUMPF append") {
		t.Errorf("expected builtin name in JUMPF rendering, got %q", out)
	}
	if !strings.Contains(out, "JUMPF square") {
		t.Errorf("expected function name in JUMPF rendering, got %q", out)
	}
}

func TestDisassembleMoveUsesRegisterMnemonics(t *testing.T) {
	prog := &Program{
		Instructions: []Instruction{
			{Type: RTYPE, Op: MOVE, A1: V0, A2: 2, A3: -1},
		},
	}
	out := Disassemble(prog, noBuiltin)
	if !strings.Contains(out, "MOVE V0 R2") {
		t.Errorf("expected MOVE V0 R2, got %q", out)
	}
}

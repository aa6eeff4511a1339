package vm

import (
	"bytes"
	"strings"
	"testing"

	"vanta/internal/irgen"
	"vanta/internal/lexer"
	"vanta/internal/parser"
)

// run lexes, parses, lowers and executes src on a fresh VM, returning
// everything PRINT wrote.
func run(t *testing.T, src string) string {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	prog, err := irgen.Generate(stmts)
	if err != nil {
		t.Fatalf("irgen error: %v", err)
	}
	var out bytes.Buffer
	if err := New(prog, &out).Run(); err != nil {
		t.Fatalf("vm error: %v", err)
	}
	return out.String()
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	prog, err := irgen.Generate(stmts)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	return New(prog, &out).Run()
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "arithmetic precedence",
			src:      `let x = 3; let y = 4; print(x * y + 1);`,
			expected: "13\n",
		},
		{
			name:     "list element assignment",
			src:      `let arr = [1,2,3]; arr[1] = 99; print(arr);`,
			expected: "[1, 99, 3]\n",
		},
		{
			name: "recursive factorial",
			src: `function fact(n) { if (n <= 1) { return 1; } else { return n * fact(n - 1); } }
print(fact(5));`,
			expected: "120\n",
		},
		{
			name:     "string accumulation while loop",
			src:      `let s = ""; let i = 0; while (i < 3) { s = s + "ab"; i = i + 1; } print(s);`,
			expected: "ababab\n",
		},
		{
			name:     "type and size builtins",
			src:      `print(type([1, 2])); print(type("x")); print(size("hello"));`,
			expected: "list\nstring\n5\n",
		},
		{
			name:     "append then remove",
			src:      `let a = [1,2,3]; a = append(a, 4); a = remove(a, 0); print(a);`,
			expected: "[2, 3, 4]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.src)
			if got != tt.expected {
				t.Errorf("output = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBoundaryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"negative string index", `let s = "hi"; print(s[-1]);`, "IndexOutOfBounds"},
		{"string index at length", `let s = "hi"; print(s[2]);`, "IndexOutOfBounds"},
		{"negative list index", `let a = [1]; print(a[-1]);`, "IndexOutOfBounds"},
		{"list index at length", `let a = [1]; print(a[1]);`, "IndexOutOfBounds"},
		{"divide by zero", `print(5 / 0);`, "DivideByZero"},
		{"modulo by zero", `print(5 % 0);`, "DivideByZero"},
		{"type mismatch add", `print(true + 1);`, "TypeMismatch"},
		{"arity mismatch", `function fact(n) { return n; } print(fact());`, "ArityMismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runErr(t, tt.src)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestEmptyReturnSkipsRestOfBody(t *testing.T) {
	src := `function f() { return; print("unreachable"); }
f();
print("done");`
	got := run(t, src)
	if got != "done\n" {
		t.Errorf("output = %q, want %q (statement after bare return must not run)", got, "done\n")
	}
}

func TestReturnedCallStopsFunctionBody(t *testing.T) {
	src := `function one() { return 1; }
function wrap() { return one(); print("unreachable"); }
print(wrap());`
	got := run(t, src)
	if got != "1\n" {
		t.Errorf("output = %q, want %q (a returned call must end the enclosing body)", got, "1\n")
	}
}

func TestReturnedListLiteral(t *testing.T) {
	src := `function pair() { return [1, 2]; print("unreachable"); }
print(pair());`
	got := run(t, src)
	if got != "[1, 2]\n" {
		t.Errorf("output = %q, want %q", got, "[1, 2]\n")
	}
}

func TestCallDoesNotLeakCalleeLocals(t *testing.T) {
	src := `function inc(n) { let n = n + 1; return n; }
let x = 5;
print(inc(x));
print(x);`
	got := run(t, src)
	if got != "6\n5\n" {
		t.Errorf("output = %q, want %q (callee locals must not leak to caller)", got, "6\n5\n")
	}
}

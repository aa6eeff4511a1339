// Package replsrv implements vanta's interactive REPL session: read
// one line, lex, parse, lower it with internal/irgen, and run it on a
// persistent vm.VM. Each line gets a fresh chunk of IR, but the VM
// (and so the variables it has bound) survives across lines.
package replsrv

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mattn/go-isatty"

	"vanta/internal/irgen"
	"vanta/internal/lexer"
	"vanta/internal/parser"
	"vanta/internal/vm"
)

// DefaultPrompt is printed before each line when stdin is a terminal.
const DefaultPrompt = ">>> "

// Session is one REPL session: an input/output pair and the VM state
// accumulated across the lines read so far.
type Session struct {
	in     *bufio.Scanner
	out    io.Writer
	prompt string
	isTTY  bool

	vm *vm.VM
}

// New constructs a Session reading from in and writing PRINT output
// and prompts to out. inFd is probed with isatty to decide whether to
// print a prompt at all; a pipe or redirected file gets none.
func New(in io.Reader, out io.Writer, inFd uintptr, prompt string) *Session {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Session{
		in:     bufio.NewScanner(in),
		out:    out,
		prompt: prompt,
		isTTY:  isatty.IsTerminal(inFd) || isatty.IsCygwinTerminal(inFd),
		vm:     vm.New(nil, out),
	}
}

// Start runs the read-eval-print loop until EOF or an "exit" line.
func (s *Session) Start() {
	fmt.Fprintln(s.out, "vanta REPL | type 'exit' to quit")
	for {
		if s.isTTY {
			fmt.Fprint(s.out, s.prompt)
		}
		if !s.in.Scan() {
			return
		}
		line := s.in.Text()
		if line == "exit" {
			return
		}
		if err := s.Eval(line); err != nil {
			fmt.Fprintln(s.out, err.Error())
		}
	}
}

// Eval lowers one line of source into a fresh ir.Program (a new
// Generator per line) and runs it on the session's persistent VM via
// ResetWithProgram. Because the VM's frame stack is reused across
// lines, variables bound by a prior line's `let` are still visible by
// name in this one. Function definitions are not: each line lowers
// against its own empty function table, so a `function` declared on
// one line must be called within that same line.
func (s *Session) Eval(line string) error {
	tokens := lexer.NewScanner(line).ScanTokens()
	p := parser.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		return p.Errors[0]
	}
	prog, err := irgen.Generate(stmts)
	if err != nil {
		return err
	}
	s.vm.ResetWithProgram(prog)
	return s.vm.Run()
}

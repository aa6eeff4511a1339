// cmd/vanta/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"vanta/internal/builtins"
	"vanta/internal/config"
	"vanta/internal/ir"
	"vanta/internal/irgen"
	"vanta/internal/lexer"
	"vanta/internal/parser"
	"vanta/internal/replsrv"
	"vanta/internal/traceserver"
	"vanta/internal/tracestore"
	"vanta/internal/treeeval"
	"vanta/internal/vm"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "repl":
		runRepl()
		return
	case "serve":
		runServe(args[1:])
		return
	}

	runScript(args)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vanta <path> [--output-lexer] [--output-parser] [--output-ir] [--tree-evaluate] [--trace-db <dsn>]")
	fmt.Fprintln(os.Stderr, "       vanta repl")
	fmt.Fprintln(os.Stderr, "       vanta serve --addr :7777")
}

var knownFlags = map[string]bool{
	"--output-lexer":   true,
	"--output-parser":  true,
	"--tree-evaluate":  true,
	"--output-ir":      true,
	"--trace-db":       true,
}

func runScript(args []string) {
	var path string
	flags := map[string]bool{}
	traceDSN := ""

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--trace-db":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "error: --trace-db requires a DSN argument")
				os.Exit(1)
			}
			traceDSN = args[i+1]
			i++
		case len(a) >= 2 && a[:2] == "--":
			if !knownFlags[a] {
				fmt.Fprintf(os.Stderr, "error: unknown flag %q\n", a)
				os.Exit(1)
			}
			flags[a] = true
		case path == "":
			path = a
		default:
			fmt.Fprintf(os.Stderr, "error: unexpected argument %q\n", a)
			os.Exit(1)
		}
	}

	if path == "" {
		fmt.Fprintln(os.Stderr, "error: missing source file argument")
		usage()
		os.Exit(1)
	}

	manifest, err := config.LoadForScript(path)
	if err != nil {
		log.Fatalf("error loading vanta.json: %v", err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not read %q: %v\n", path, err)
		os.Exit(1)
	}

	tokens := lexer.NewScanner(string(source)).ScanTokens()
	if flags["--output-lexer"] {
		for _, tok := range tokens {
			fmt.Println(tok.String())
		}
	}

	p := parser.NewParserWithFile(tokens, path)
	program := p.Parse()
	if len(p.Errors) > 0 {
		for _, e := range p.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	if flags["--output-parser"] {
		for _, stmt := range program {
			fmt.Printf("%T\n", stmt)
		}
	}

	treeEvaluate := flags["--tree-evaluate"] || manifest.TreeEvaluate
	if traceDSN == "" {
		traceDSN = manifest.TraceDB
	}

	if flags["--output-ir"] || !treeEvaluate {
		prog, err := irgen.Generate(program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
			os.Exit(1)
		}

		if flags["--output-ir"] {
			fmt.Print(ir.Disassemble(prog, builtinName))
		}

		if !treeEvaluate {
			runVM(prog, traceDSN)
			return
		}
	}

	if err := treeeval.New(os.Stdout).Run(program); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}
}

func runVM(prog *ir.Program, traceDSN string) {
	machine := vm.New(prog, os.Stdout)

	if traceDSN != "" {
		store, err := tracestore.Open(traceDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: could not open trace store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		machine.SetTrace(store.Record)
	}

	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}
}

func builtinName(fid int) (string, bool) {
	name, ok := builtins.FidToName[builtins.Fid(fid)]
	return name, ok
}

func runRepl() {
	manifest, err := config.Load(".")
	if err != nil {
		log.Fatalf("error loading vanta.json: %v", err)
	}
	session := replsrv.New(os.Stdin, os.Stdout, os.Stdin.Fd(), manifest.ReplPrompt)
	session.Start()
}

func runServe(args []string) {
	addr := ":7777"
	for i := 0; i < len(args); i++ {
		if args[i] == "--addr" && i+1 < len(args) {
			addr = args[i+1]
			i++
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := traceserver.New(addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("vanta serve: %v", err)
	}
}

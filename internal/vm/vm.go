// Package vm implements vanta's register-based virtual machine: a
// fetch-decode-execute loop over an ir.Program, an explicit register
// file per activation frame, a VM-wide return register (V0) and
// scratch register (T0), and built-in dispatch unified with ordinary
// user-function calls through JUMPF.
package vm

import (
	"fmt"
	"io"
	"os"

	"vanta/internal/builtins"
	"vanta/internal/ir"
	"vanta/internal/value"
	"vanta/internal/verrors"
)

// Frame is one activation record: its own register file and local
// environment, plus the address execution resumes at on RET. PUSH
// clones the caller's Frame wholesale, so mutations the callee makes
// to either map are invisible once it returns.
type Frame struct {
	Registers map[int]value.Value
	Env       map[string]value.Value
	ReturnPC  int
}

func newFrame() *Frame {
	return &Frame{Registers: map[int]value.Value{}, Env: map[string]value.Value{}}
}

func (f *Frame) clone() *Frame {
	c := &Frame{
		Registers: make(map[int]value.Value, len(f.Registers)),
		Env:       make(map[string]value.Value, len(f.Env)),
	}
	for k, v := range f.Registers {
		c.Registers[k] = v
	}
	for k, v := range f.Env {
		c.Env[k] = v
	}
	return c
}

// VM executes an ir.Program. One VM is reusable across runs via
// ResetWithProgram, or construct a fresh one per program; the REPL
// (internal/replsrv) keeps a single VM alive across many small
// programs so bindings accumulate.
type VM struct {
	prog *ir.Program
	pc   int

	frames []*Frame
	v0     value.Value
	t0     value.Value

	out   io.Writer
	trace TraceFunc
}

// TraceEvent is one about-to-execute instruction, as reported to a
// TraceFunc registered with SetTrace. Depth is the frame stack depth
// at the time of the event (1 at top level, deeper inside calls).
type TraceEvent struct {
	PC    int
	Op    string
	A1    int
	A2    int
	A3    int
	Depth int
}

// TraceFunc receives one TraceEvent per executed instruction. Used by
// internal/tracestore to persist a run's execution trace when the CLI
// is invoked with --trace-db; nil (the default) disables tracing
// entirely with no overhead beyond the nil check.
type TraceFunc func(TraceEvent)

// SetTrace registers fn to be called once per instruction executed,
// before the instruction runs. Pass nil to disable tracing.
func (vm *VM) SetTrace(fn TraceFunc) { vm.trace = fn }

// New constructs a VM ready to run prog, with PRINT output directed to
// out. A nil out defaults to os.Stdout.
func New(prog *ir.Program, out io.Writer) *VM {
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		prog:   prog,
		frames: []*Frame{newFrame()},
		out:    out,
	}
}

func (vm *VM) current() *Frame { return vm.frames[len(vm.frames)-1] }

// ResetWithProgram swaps in a freshly lowered Program and rewinds the
// program counter to 0, while leaving the VM's frame stack (and so
// its global environment) untouched. This is what lets
// internal/replsrv run one source line at a time against a single
// long-lived VM: each line gets its own IR, but the environment
// bindings earlier programs stored are kept. Function definitions are
// not: the function table belongs to the Program being replaced.
func (vm *VM) ResetWithProgram(prog *ir.Program) {
	vm.prog = prog
	vm.pc = 0
}

// Run executes the program from pc 0 until an END instruction halts it
// or a runtime error aborts execution.
func (vm *VM) Run() error {
	for {
		if vm.pc < 0 || vm.pc >= len(vm.prog.Instructions) {
			return verrors.Newf(verrors.UnboundName, "program counter %d out of range", vm.pc)
		}
		inst := vm.prog.Instructions[vm.pc]
		if vm.trace != nil {
			vm.trace(TraceEvent{
				PC: vm.pc, Op: inst.Op.String(),
				A1: inst.A1, A2: inst.A2, A3: inst.A3,
				Depth: len(vm.frames),
			})
		}
		halt, err := vm.step(inst)
		if err != nil {
			return err
		}
		if halt {
			return nil
		}
	}
}

// step executes one instruction, returning halt=true on END.
func (vm *VM) step(inst ir.Instruction) (bool, error) {
	switch inst.Op {
	case ir.END:
		return true, nil

	case ir.NOP:
		vm.pc++
		return false, nil

	case ir.ADD, ir.SUB, ir.MUL, ir.DIV, ir.POW, ir.MOD,
		ir.GT, ir.GTE, ir.LT, ir.LTE, ir.EQ, ir.NEQ, ir.AND, ir.OR:
		if err := vm.binOp(inst); err != nil {
			return false, err
		}
		vm.pc++
		return false, nil

	case ir.NEG:
		a2 := vm.reg(inst.A2)
		res, err := value.Neg(a2)
		if err != nil {
			return false, typeErr(err)
		}
		vm.setReg(inst.A1, res)
		vm.pc++
		return false, nil

	case ir.NOT:
		a2 := vm.reg(inst.A2)
		res, err := value.Not(a2)
		if err != nil {
			return false, typeErr(err)
		}
		vm.setReg(inst.A1, res)
		vm.pc++
		return false, nil

	case ir.SIZE:
		a2 := vm.reg(inst.A2)
		res, err := value.Size(a2)
		if err != nil {
			return false, typeErr(err)
		}
		vm.setReg(inst.A1, res)
		vm.pc++
		return false, nil

	case ir.PRINT:
		fmt.Fprintln(vm.out, vm.reg(inst.A1).String())
		vm.pc++
		return false, nil

	case ir.LOAD_CONST:
		if inst.A2 < 0 || inst.A2 >= len(vm.prog.Consts) {
			return false, verrors.Newf(verrors.UnboundName, "constant index %d out of range", inst.A2)
		}
		vm.setReg(inst.A1, vm.prog.Consts[inst.A2])
		vm.pc++
		return false, nil

	case ir.LOAD_VAR:
		name, err := vm.identAt(inst.A2)
		if err != nil {
			return false, err
		}
		val, ok := vm.current().Env[name]
		if !ok {
			return false, verrors.Newf(verrors.UnboundName, "variable %q is not defined", name)
		}
		vm.setReg(inst.A1, val)
		vm.pc++
		return false, nil

	case ir.STORE_VAR:
		name, err := vm.identAt(inst.A1)
		if err != nil {
			return false, err
		}
		vm.current().Env[name] = vm.reg(inst.A2)
		vm.pc++
		return false, nil

	case ir.INIT_LIST:
		vm.setReg(inst.A1, value.List(nil))
		vm.pc++
		return false, nil

	case ir.APPEND:
		list := vm.reg(inst.A1)
		res, err := value.Append(list, vm.reg(inst.A2))
		if err != nil {
			return false, typeErr(err)
		}
		vm.setReg(inst.A1, res)
		vm.pc++
		return false, nil

	case ir.ACCESS:
		res, err := value.Index(vm.reg(inst.A2), vm.reg(inst.A3))
		if err != nil {
			return false, indexErr(err)
		}
		vm.setReg(inst.A1, res)
		vm.pc++
		return false, nil

	case ir.MODIFY:
		res, err := value.Modify(vm.reg(inst.A1), vm.reg(inst.A2), vm.reg(inst.A3))
		if err != nil {
			return false, indexErr(err)
		}
		vm.t0 = res
		vm.pc++
		return false, nil

	case ir.MOVE:
		vm.setReg(inst.A1, vm.getReg(inst.A2))
		vm.pc++
		return false, nil

	case ir.PUSH:
		vm.frames = append(vm.frames, vm.current().clone())
		vm.pc++
		return false, nil

	case ir.POP:
		if len(vm.frames) > 1 {
			vm.frames = vm.frames[:len(vm.frames)-1]
		}
		vm.pc++
		return false, nil

	case ir.JUMP:
		vm.pc = inst.A1
		return false, nil

	case ir.JNT:
		cond := vm.reg(inst.A1)
		if !cond.IsBool() {
			return false, verrors.Newf(verrors.BadBranchCondition, "branch condition is %s, not bool", cond.TypeName())
		}
		if cond.B {
			vm.pc++
		} else {
			vm.pc = inst.A2
		}
		return false, nil

	case ir.JUMPF:
		vm.current().ReturnPC = vm.pc + 1
		if inst.A1 < 0 {
			if err := vm.dispatchBuiltin(builtins.Fid(inst.A1)); err != nil {
				return false, err
			}
			return vm.ret()
		}
		if inst.A1 >= len(vm.prog.Funcs) {
			return false, verrors.Newf(verrors.UnboundName, "function id %d does not exist", inst.A1)
		}
		vm.pc = vm.prog.Funcs[inst.A1].StartAddr
		return false, nil

	case ir.RET:
		return vm.ret()
	}

	return false, verrors.Newf(verrors.UnknownBuiltin, "unknown opcode %v", inst.Op)
}

// ret pops the current frame and resumes at its recorded return
// address; JUMPF reuses it so a builtin call returns as if the callee
// had executed RET itself.
func (vm *VM) ret() (bool, error) {
	retAddr := vm.current().ReturnPC
	if len(vm.frames) > 1 {
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	vm.pc = retAddr
	return false, nil
}

func (vm *VM) dispatchBuiltin(fid builtins.Fid) error {
	names, ok := builtins.ParamNames[fid]
	if !ok {
		return verrors.Newf(verrors.UnknownBuiltin, "unknown builtin fid %d", fid)
	}
	args := make([]value.Value, len(names))
	for i, name := range names {
		v, ok := vm.current().Env[name]
		if !ok {
			return verrors.Newf(verrors.UnboundName, "builtin argument %q is not bound", name)
		}
		args[i] = v
	}
	res, err := builtins.Call(fid, args)
	if err != nil {
		return err
	}
	vm.v0 = res
	return nil
}

func (vm *VM) identAt(idx int) (string, error) {
	if idx < 0 || idx >= len(vm.prog.Idents) {
		return "", verrors.Newf(verrors.UnboundName, "identifier index %d out of range", idx)
	}
	return vm.prog.Idents[idx], nil
}

// reg reads an ordinary (non-sentinel) register, defaulting to
// value.None for a slot that was never written.
func (vm *VM) reg(n int) value.Value {
	if v, ok := vm.current().Registers[n]; ok {
		return v
	}
	return value.None
}

func (vm *VM) setReg(n int, v value.Value) {
	switch n {
	case ir.V0:
		vm.v0 = v
	case ir.T0:
		vm.t0 = v
	default:
		vm.current().Registers[n] = v
	}
}

// getReg reads a register operand that may be one of the VM-wide
// sentinels (PC, V0, T0) as well as an ordinary frame register; MOVE
// is the only instruction whose second operand needs this.
func (vm *VM) getReg(n int) value.Value {
	switch n {
	case ir.PC:
		return value.Int(vm.pc)
	case ir.V0:
		return vm.v0
	case ir.T0:
		return vm.t0
	default:
		return vm.reg(n)
	}
}

func (vm *VM) binOp(inst ir.Instruction) error {
	a, b := vm.reg(inst.A2), vm.reg(inst.A3)
	var res value.Value
	var err error
	switch inst.Op {
	case ir.ADD:
		res, err = value.Add(a, b)
	case ir.SUB:
		res, err = value.Sub(a, b)
	case ir.MUL:
		res, err = value.Mul(a, b)
	case ir.DIV:
		if b.IsInt() && b.I == 0 {
			return verrors.Newf(verrors.DivideByZero, "division by zero")
		}
		res, err = value.Div(a, b)
	case ir.POW:
		res, err = value.Pow(a, b)
	case ir.MOD:
		if b.IsInt() && b.I == 0 {
			return verrors.Newf(verrors.DivideByZero, "modulo by zero")
		}
		res, err = value.Mod(a, b)
	case ir.GT:
		res, err = value.Gt(a, b)
	case ir.GTE:
		res, err = value.Gte(a, b)
	case ir.LT:
		res, err = value.Lt(a, b)
	case ir.LTE:
		res, err = value.Lte(a, b)
	case ir.EQ:
		res, err = value.Eq(a, b)
	case ir.NEQ:
		res, err = value.Neq(a, b)
	case ir.AND:
		res, err = value.And(a, b)
	case ir.OR:
		res, err = value.Or(a, b)
	}
	if err != nil {
		return typeErr(err)
	}
	vm.setReg(inst.A1, res)
	return nil
}

func typeErr(err error) error {
	if opErr, ok := err.(*value.OpError); ok {
		return verrors.Newf(verrors.TypeMismatch, "%v", opErr)
	}
	return verrors.Newf(verrors.TypeMismatch, "%v", err)
}

func indexErr(err error) error {
	if _, ok := err.(*value.IndexError); ok {
		return verrors.Newf(verrors.IndexOutOfBounds, "%v", err)
	}
	return typeErr(err)
}

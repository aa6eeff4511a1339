// Package irgen lowers a vanta expression tree into the register VM's
// IR: a flat Instruction stream plus identifier/constant/function side
// tables, with jump targets back-patched once the instruction count on
// either side of a branch is known.
package irgen

import (
	"vanta/internal/ast"
	"vanta/internal/builtins"
	"vanta/internal/ir"
	"vanta/internal/value"
	"vanta/internal/verrors"
)

type funcDef struct {
	info   ir.FunctionInfo
	params []string
}

// Generator holds all lowering state for one compilation unit.
type Generator struct {
	instr []ir.Instruction

	identTable []string
	identToIdx map[string]int

	constTable []value.Value

	funcs      []funcDef
	identToFid map[string]int
	queue      []int
	pending    map[int]*ast.FuncDef
	funcStarts map[int]string

	currReg int
}

func New() *Generator {
	return &Generator{
		identToIdx: map[string]int{},
		identToFid: map[string]int{},
		pending:    map[int]*ast.FuncDef{},
		funcStarts: map[int]string{},
	}
}

// Generate lowers a full program (the parser's top-level statement
// list) into an ir.Program. Main code is emitted first, then a single
// END instruction, then every queued function body in declaration
// order, drained from the deferred function-emission queue.
func Generate(program []ast.Expr) (*ir.Program, error) {
	g := New()
	for _, stmt := range program {
		if _, err := g.block(stmt); err != nil {
			return nil, err
		}
	}

	g.emit(ir.Instruction{Type: ir.ITYPE, Op: ir.END, A1: -1, A2: -1, A3: -1})

	for len(g.queue) > 0 {
		fid := g.queue[0]
		g.queue = g.queue[1:]
		if err := g.genFuncBody(fid); err != nil {
			return nil, err
		}
	}

	funcInfos := make([]ir.FunctionInfo, len(g.funcs))
	for i, f := range g.funcs {
		funcInfos[i] = f.info
	}

	return &ir.Program{
		Instructions: g.instr,
		Idents:       g.identTable,
		Consts:       g.constTable,
		Funcs:        funcInfos,
		FuncStarts:   g.funcStarts,
	}, nil
}

func (g *Generator) emit(i ir.Instruction) int {
	g.instr = append(g.instr, i)
	return len(g.instr) - 1
}

func (g *Generator) here() int { return len(g.instr) }

// block lowers one node and returns the register its result (if any)
// lives in. Effectful nodes (assignments, print, function definitions,
// empty returns) return the generator's current register counter
// instead: the next register to be allocated, which holds no value.
func (g *Generator) block(exp ast.Expr) (int, error) {
	switch e := exp.(type) {
	case *ast.Empty:
		return g.genEmpty(e)
	case *ast.Const:
		return g.genConst(e)
	case *ast.Var:
		return g.genVar(e)
	case *ast.Assign:
		return g.genAssign(e)
	case *ast.Monadic:
		return g.genMonadic(e)
	case *ast.Binary:
		return g.genBinary(e)
	case *ast.If:
		return g.genIf(e)
	case *ast.While:
		return g.genWhile(e)
	case *ast.FuncDef:
		return g.storeFuncDef(e)
	case *ast.FuncCall:
		return g.genCall(e)
	case *ast.List:
		return g.genList(e)
	case *ast.ListAccess:
		return g.genListAccess(e)
	case *ast.ListModify:
		return g.genListModify(e)
	}
	return g.currReg, nil
}

func (g *Generator) genEmpty(e *ast.Empty) (int, error) {
	if e.Returnable() {
		g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.RET, A1: -1, A2: -1, A3: -1})
	} else {
		g.emit(ir.Instruction{Type: ir.ITYPE, Op: ir.NOP, A1: -1, A2: -1, A3: -1})
	}
	return g.currReg, nil
}

func (g *Generator) genConst(e *ast.Const) (int, error) {
	idx := len(g.constTable)
	g.constTable = append(g.constTable, e.Value)
	g.emit(ir.Instruction{Type: ir.ITYPE, Op: ir.LOAD_CONST, A1: g.currReg, A2: idx, A3: -1})
	g.maybeReturn(e.Returnable(), g.currReg)
	reg := g.currReg
	g.currReg++
	return reg, nil
}

func (g *Generator) identIndex(name string) int {
	if idx, ok := g.identToIdx[name]; ok {
		return idx
	}
	idx := len(g.identTable)
	g.identTable = append(g.identTable, name)
	g.identToIdx[name] = idx
	return idx
}

func (g *Generator) genVar(e *ast.Var) (int, error) {
	idx, ok := g.identToIdx[e.Name]
	if !ok {
		return 0, verrors.Newf(verrors.UnboundName, "identifier %q does not exist", e.Name)
	}
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.LOAD_VAR, A1: g.currReg, A2: idx, A3: -1})
	g.maybeReturn(e.Returnable(), g.currReg)
	reg := g.currReg
	g.currReg++
	return reg, nil
}

func (g *Generator) genAssign(e *ast.Assign) (int, error) {
	t1, err := g.block(e.Expr)
	if err != nil {
		return 0, err
	}
	var identIdx int
	if !e.Reassign {
		identIdx = len(g.identTable)
		g.identTable = append(g.identTable, e.Name)
		g.identToIdx[e.Name] = identIdx
	} else {
		idx, ok := g.identToIdx[e.Name]
		if !ok {
			return 0, verrors.Newf(verrors.UnboundName, "identifier %q does not exist", e.Name)
		}
		identIdx = idx
	}
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.STORE_VAR, A1: identIdx, A2: t1, A3: -1})
	return g.currReg, nil
}

func (g *Generator) genMonadic(e *ast.Monadic) (int, error) {
	t1, err := g.block(e.Expr)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case ast.Not:
		g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.NOT, A1: g.currReg, A2: t1, A3: -1})
		g.maybeReturn(e.Returnable(), g.currReg)
		reg := g.currReg
		g.currReg++
		return reg, nil
	case ast.Neg:
		g.emit(ir.Instruction{Type: ir.ITYPE, Op: ir.NEG, A1: g.currReg, A2: t1, A3: -1})
		g.maybeReturn(e.Returnable(), g.currReg)
		reg := g.currReg
		g.currReg++
		return reg, nil
	case ast.Print:
		g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.PRINT, A1: t1, A2: -1, A3: -1})
		return g.currReg, nil
	case ast.Size:
		g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.SIZE, A1: g.currReg, A2: t1, A3: -1})
		g.maybeReturn(e.Returnable(), g.currReg)
		reg := g.currReg
		g.currReg++
		return reg, nil
	}
	return g.currReg, nil
}

var binOpToOp = map[ast.BinaryOp]ir.Op{
	ast.Add: ir.ADD, ast.Sub: ir.SUB, ast.Mul: ir.MUL, ast.Div: ir.DIV,
	ast.Pow: ir.POW, ast.Mod: ir.MOD,
	ast.Eq: ir.EQ, ast.Neq: ir.NEQ,
	ast.Gt: ir.GT, ast.Gte: ir.GTE,
	ast.Lt: ir.LT, ast.Lte: ir.LTE, // Lte maps to LTE, never GTE.
	ast.And: ir.AND, ast.Or: ir.OR,
}

func (g *Generator) genBinary(e *ast.Binary) (int, error) {
	t1, err := g.block(e.Left)
	if err != nil {
		return 0, err
	}
	t2, err := g.block(e.Right)
	if err != nil {
		return 0, err
	}
	op, ok := binOpToOp[e.Op]
	if !ok {
		return 0, verrors.Newf(verrors.TypeMismatch, "unknown binary operation %d", e.Op)
	}
	g.emit(ir.Instruction{Type: ir.ITYPE, Op: op, A1: g.currReg, A2: t1, A3: t2})
	g.maybeReturn(e.Returnable(), g.currReg)
	reg := g.currReg
	g.currReg++
	return reg, nil
}

func (g *Generator) genIf(e *ast.If) (int, error) {
	t1, err := g.block(e.Cond)
	if err != nil {
		return 0, err
	}
	condJumpIdx := g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.JNT, A1: t1, A2: -1, A3: -1})

	last := g.currReg
	for _, stmt := range e.Then {
		if last, err = g.block(stmt); err != nil {
			return 0, err
		}
	}
	endifJumpIdx := g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.JUMP, A1: -1, A2: -1, A3: -1})
	g.instr[condJumpIdx].A2 = g.here()

	for _, stmt := range e.Else {
		if last, err = g.block(stmt); err != nil {
			return 0, err
		}
	}
	g.instr[endifJumpIdx].A1 = g.here()

	return last, nil
}

func (g *Generator) genWhile(e *ast.While) (int, error) {
	condStart := g.here()
	t1, err := g.block(e.Cond)
	if err != nil {
		return 0, err
	}
	jumpIdx := g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.JNT, A1: t1, A2: -1, A3: -1})

	last := g.currReg
	for _, stmt := range e.Body {
		if last, err = g.block(stmt); err != nil {
			return 0, err
		}
	}
	g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.JUMP, A1: condStart, A2: -1, A3: -1})
	g.instr[jumpIdx].A2 = g.here()

	return last, nil
}

func (g *Generator) storeFuncDef(e *ast.FuncDef) (int, error) {
	fid := len(g.funcs)
	g.identToFid[e.Name] = fid
	g.funcs = append(g.funcs, funcDef{info: ir.FunctionInfo{Name: e.Name, StartAddr: -1}, params: e.Params})
	g.queue = append(g.queue, fid)
	g.pending[fid] = e
	return g.currReg, nil
}

func (g *Generator) genFuncBody(fid int) error {
	def := g.pending[fid]
	start := g.here()
	g.funcs[fid].info.StartAddr = start
	g.funcStarts[start] = g.funcs[fid].info.Name
	for _, stmt := range def.Body {
		if _, err := g.block(stmt); err != nil {
			return err
		}
	}
	g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.RET, A1: -1, A2: -1, A3: -1})
	return nil
}

func (g *Generator) genCall(e *ast.FuncCall) (int, error) {
	var fid int
	var params []string

	if builtins.IsBuiltin(e.Name) {
		fid = int(builtins.NameToFid[e.Name])
		params = builtins.ParamNames[builtins.Fid(fid)]
	} else {
		f, ok := g.identToFid[e.Name]
		if !ok {
			return 0, verrors.Newf(verrors.UnboundName, "function %q does not exist", e.Name)
		}
		fid = f
		params = g.funcs[f].params
	}

	if len(params) != len(e.Args) {
		return 0, verrors.Newf(verrors.ArityMismatch, "%q expects %d arguments, got %d", e.Name, len(params), len(e.Args))
	}

	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.PUSH, A1: ir.PC, A2: -1, A3: -1})
	for i, arg := range e.Args {
		t1, err := g.block(arg)
		if err != nil {
			return 0, err
		}
		identIdx := g.identIndex(params[i])
		g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.STORE_VAR, A1: identIdx, A2: t1, A3: -1})
	}
	g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.JUMPF, A1: fid, A2: -1, A3: -1})
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.MOVE, A1: g.currReg, A2: ir.V0, A3: -1})
	g.maybeReturn(e.Returnable(), g.currReg)

	reg := g.currReg
	g.currReg++
	return reg, nil
}

func (g *Generator) genList(e *ast.List) (int, error) {
	listReg := g.currReg
	g.currReg++
	g.emit(ir.Instruction{Type: ir.ITYPE, Op: ir.INIT_LIST, A1: listReg, A2: -1, A3: -1})

	for _, elem := range e.Elements {
		ti, err := g.block(elem)
		if err != nil {
			return 0, err
		}
		g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.APPEND, A1: listReg, A2: ti, A3: -1})
	}

	g.maybeReturn(e.Returnable(), listReg)
	return listReg, nil
}

func (g *Generator) genListAccess(e *ast.ListAccess) (int, error) {
	t1, err := g.block(e.Target)
	if err != nil {
		return 0, err
	}
	t2, err := g.block(e.Index)
	if err != nil {
		return 0, err
	}
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.ACCESS, A1: g.currReg, A2: t1, A3: t2})
	g.maybeReturn(e.Returnable(), g.currReg)
	reg := g.currReg
	g.currReg++
	return reg, nil
}

func (g *Generator) genListModify(e *ast.ListModify) (int, error) {
	t1, err := g.block(e.Target)
	if err != nil {
		return 0, err
	}
	t2, err := g.block(e.Index)
	if err != nil {
		return 0, err
	}
	t3, err := g.block(e.Value)
	if err != nil {
		return 0, err
	}
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.MODIFY, A1: t1, A2: t2, A3: t3})
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.MOVE, A1: g.currReg, A2: ir.T0, A3: -1})
	reg := g.currReg
	g.currReg++
	return reg, nil
}

// maybeReturn appends the MOVE-into-V0 + RET pair that propagates the
// value in reg when its node sits at a `return` boundary.
func (g *Generator) maybeReturn(returnable bool, reg int) {
	if !returnable {
		return
	}
	g.emit(ir.Instruction{Type: ir.RTYPE, Op: ir.MOVE, A1: ir.V0, A2: reg, A3: -1})
	g.emit(ir.Instruction{Type: ir.JTYPE, Op: ir.RET, A1: -1, A2: -1, A3: -1})
}

// Package ast defines vanta's expression tree: the thirteen node kinds
// the parser produces and both the IR generator and the tree evaluator
// walk.
package ast

import "vanta/internal/value"

// Kind identifies which concrete node an Expr is.
type Kind int

const (
	KindEmpty Kind = iota
	KindConst
	KindVar
	KindBinary
	KindMonadic
	KindAssign
	KindIf
	KindWhile
	KindList
	KindListAccess
	KindListModify
	KindFuncDef
	KindFuncCall
)

// Expr is implemented by every node in the tree. Returnable marks nodes
// that, when evaluated as the last-executed statement of a block, cause
// that block's own result to propagate upward (the `return` boundary).
type Expr interface {
	ExprKind() Kind
	Returnable() bool
	SetReturnable(bool)
	Clone() Expr
}

type base struct {
	returnable bool
}

func (b *base) Returnable() bool      { return b.returnable }
func (b *base) SetReturnable(r bool)  { b.returnable = r }

// Empty represents an empty return statement (`return;`).
type Empty struct{ base }

func NewEmpty() *Empty            { return &Empty{} }
func (e *Empty) ExprKind() Kind    { return KindEmpty }
func (e *Empty) Clone() Expr       { c := *e; return &c }

// BinaryOp enumerates vanta's binary operators.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Div
	Mul
	Pow
	Mod
	Eq
	Gt
	Gte
	Lt
	Lte
	Neq
	And
	Or
)

// MonadicOp enumerates vanta's unary (monadic) operators.
type MonadicOp int

const (
	Not MonadicOp = iota
	Neg
	Print
	Size
)

// Const is a literal int, bool or string.
type Const struct {
	base
	Value value.Value
}

func NewConst(v value.Value) *Const { return &Const{Value: v} }
func (c *Const) ExprKind() Kind      { return KindConst }
func (c *Const) Clone() Expr         { v := *c; return &v }

// Var references a bound identifier.
type Var struct {
	base
	Name string
}

func NewVar(name string) *Var  { return &Var{Name: name} }
func (v *Var) ExprKind() Kind  { return KindVar }
func (v *Var) Clone() Expr     { c := *v; return &c }

// Binary applies a BinaryOp to two sub-expressions.
type Binary struct {
	base
	Op          BinaryOp
	Left, Right Expr
}

func NewBinary(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}
func (b *Binary) ExprKind() Kind { return KindBinary }
func (b *Binary) Clone() Expr {
	return &Binary{base: b.base, Op: b.Op, Left: b.Left.Clone(), Right: b.Right.Clone()}
}

// Monadic applies a MonadicOp to one sub-expression.
type Monadic struct {
	base
	Op   MonadicOp
	Expr Expr
}

func NewMonadic(op MonadicOp, e Expr) *Monadic { return &Monadic{Op: op, Expr: e} }
func (m *Monadic) ExprKind() Kind               { return KindMonadic }
func (m *Monadic) Clone() Expr {
	return &Monadic{base: m.base, Op: m.Op, Expr: m.Expr.Clone()}
}

// Assign binds Name to the value of Expr in the current environment,
// whether this is a fresh `let` or a reassignment of an existing name.
type Assign struct {
	base
	Name       string
	Expr       Expr
	Reassign   bool
}

func NewAssign(name string, e Expr, reassign bool) *Assign {
	return &Assign{Name: name, Expr: e, Reassign: reassign}
}
func (a *Assign) ExprKind() Kind { return KindAssign }
func (a *Assign) Clone() Expr {
	return &Assign{base: a.base, Name: a.Name, Expr: a.Expr.Clone(), Reassign: a.Reassign}
}

// If holds a boolean Cond and two statement blocks.
type If struct {
	base
	Cond       Expr
	Then, Else []Expr
}

func NewIf(cond Expr, then, els []Expr) *If { return &If{Cond: cond, Then: then, Else: els} }
func (i *If) ExprKind() Kind                 { return KindIf }
func (i *If) Clone() Expr {
	return &If{base: i.base, Cond: i.Cond.Clone(), Then: cloneAll(i.Then), Else: cloneAll(i.Else)}
}

// While loops over Body while Cond evaluates truthy.
type While struct {
	base
	Cond Expr
	Body []Expr
}

func NewWhile(cond Expr, body []Expr) *While { return &While{Cond: cond, Body: body} }
func (w *While) ExprKind() Kind               { return KindWhile }
func (w *While) Clone() Expr {
	return &While{base: w.base, Cond: w.Cond.Clone(), Body: cloneAll(w.Body)}
}

// List is a list literal.
type List struct {
	base
	Elements []Expr
}

func NewList(elements []Expr) *List { return &List{Elements: elements} }
func (l *List) ExprKind() Kind       { return KindList }
func (l *List) Clone() Expr          { return &List{base: l.base, Elements: cloneAll(l.Elements)} }

// ListAccess reads Target[Index]; Target may itself be a list or string
// expression, including a nested ListAccess for multi-dimensional access.
type ListAccess struct {
	base
	Target Expr
	Index  Expr
}

func NewListAccess(target, index Expr) *ListAccess { return &ListAccess{Target: target, Index: index} }
func (l *ListAccess) ExprKind() Kind                 { return KindListAccess }
func (l *ListAccess) Clone() Expr {
	return &ListAccess{base: l.base, Target: l.Target.Clone(), Index: l.Index.Clone()}
}

// ListModify writes Target[Index] = Value.
type ListModify struct {
	base
	Target Expr
	Index  Expr
	Value  Expr
}

func NewListModify(target, index, val Expr) *ListModify {
	return &ListModify{Target: target, Index: index, Value: val}
}
func (l *ListModify) ExprKind() Kind { return KindListModify }
func (l *ListModify) Clone() Expr {
	return &ListModify{base: l.base, Target: l.Target.Clone(), Index: l.Index.Clone(), Value: l.Value.Clone()}
}

// FuncDef declares a named function with its parameter names and body.
type FuncDef struct {
	base
	Name   string
	Params []string
	Body   []Expr
}

func NewFuncDef(name string, params []string, body []Expr) *FuncDef {
	return &FuncDef{Name: name, Params: params, Body: body}
}
func (f *FuncDef) ExprKind() Kind { return KindFuncDef }
func (f *FuncDef) Clone() Expr {
	params := make([]string, len(f.Params))
	copy(params, f.Params)
	return &FuncDef{base: f.base, Name: f.Name, Params: params, Body: cloneAll(f.Body)}
}

// FuncCall invokes Name (a user function or one of the four built-ins)
// with Args.
type FuncCall struct {
	base
	Name string
	Args []Expr
}

func NewFuncCall(name string, args []Expr) *FuncCall { return &FuncCall{Name: name, Args: args} }
func (f *FuncCall) ExprKind() Kind                     { return KindFuncCall }
func (f *FuncCall) Clone() Expr {
	return &FuncCall{base: f.base, Name: f.Name, Args: cloneAll(f.Args)}
}

func cloneAll(exprs []Expr) []Expr {
	res := make([]Expr, len(exprs))
	for i, e := range exprs {
		res[i] = e.Clone()
	}
	return res
}

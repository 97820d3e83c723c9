// Package ast defines the semantic-tree node types spec.md §3 describes:
// Stmt, Expr, and Type tagged unions produced by the semlower lexer/parser
// and consumed by semlower.Lowerer.
package ast

// Type names a value's bit width. The semantic language's type arguments
// (SignExtend's target width, select_vec's M/N/W, ...) are always plain
// integers in the supported subset, so Type carries nothing else.
type Type struct {
	Width int
}

// Expr is any semantic-tree expression node.
type Expr interface{ exprNode() }

// Ident references a local (bound by VarDecl/ConstDecl) or one of the
// register-array sentinels (_R, _Z, PSTATE) from the local environment
// (spec §3's "Local environment").
type Ident struct {
	Name string
}

// Const is an integer literal with an explicit bit width.
type Const struct {
	Value int64
	Width int
}

// Index models a register-array or bitvector element access, e.g. _R[n],
// _Z[n], PSTATE[flagname]. Base is always an Ident in the supported subset.
type Index struct {
	Base  Expr
	Index Expr
}

// App is a named function application: a function name (possibly dotted,
// e.g. "Mem.read.0"), explicit integer type arguments, and value arguments.
// The lowerer dispatches purely on (Name, len(Args)) per spec §4.3's table.
type App struct {
	Name     string
	TypeArgs []int
	Args     []Expr
}

func (*Ident) exprNode() {}
func (*Const) exprNode() {}
func (*Index) exprNode() {}
func (*App) exprNode()   {}

// Stmt is any semantic-tree statement node.
type Stmt interface{ stmtNode() }

// VarDecl introduces a mutable local, backed by an alloca cell the same way
// an architectural register cell is, per spec §3/§4.3's var_decl/const_decl
// distinction.
type VarDecl struct {
	Name string
	Type Type
	Init Expr // nil if uninitialized
}

// ConstDecl introduces an immutable local bound directly to an SSA value.
type ConstDecl struct {
	Name string
	Type Type
	Init Expr
}

// Assign stores Value into Target, where Target is an Ident or Index.
type Assign struct {
	Target Expr
	Value  Expr
}

// If lowers to (entry; then; else; join) per spec §4.3; Cond must be
// single-bit.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// For lowers to a counted loop over a 100-bit index per spec §4.3; Down
// selects the decrementing direction (downto) over the default incrementing
// one (to).
type For struct {
	Var   string
	Start Expr
	Stop  Expr
	Down  bool
	Body  []Stmt
}

// Assert emits a runtime assertion (ec.AssertTrue).
type Assert struct {
	Cond Expr
}

// Throw emits assert_true(false) per spec §4.3.
type Throw struct{}

// Call wraps a function application used purely for its side effect
// (Mem.set.0 in the supported subset, per spec §4.3's "call is used for
// memory writes... and nothing else").
type Call struct {
	App *App
}

func (*VarDecl) stmtNode()   {}
func (*ConstDecl) stmtNode() {}
func (*Assign) stmtNode()    {}
func (*If) stmtNode()        {}
func (*For) stmtNode()       {}
func (*Assert) stmtNode()    {}
func (*Throw) stmtNode()     {}
func (*Call) stmtNode()      {}

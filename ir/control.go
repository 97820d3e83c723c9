package ir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Branch emits an unconditional branch to dst and terminates the cursor
// block. Callers must SetCursor to wherever execution continues next.
func (ec *EmissionContext) Branch(dst *ir.Block) {
	ec.cursor.NewBr(dst)
}

// CondBranch emits a conditional branch on a single-bit cond.
func (ec *EmissionContext) CondBranch(cond value.Value, t, f *ir.Block) {
	ec.cursor.NewCondBr(cond, t, f)
}

// trapFnName is the process-abort intrinsic BRK lowers to before the
// unreachable terminator.
var trapFnName = "llvm.trap"

// Trap calls llvm.trap(), the intrinsic BRK lowers through before becoming
// unreachable (spec §4.4's "BRK lowers to a trap followed by unreachable").
func (ec *EmissionContext) Trap() {
	fn := ec.intrinsic(trapFnName, types.Void, nil)
	ec.cursor.NewCall(fn)
}

// Unreachable terminates the cursor block with an unreachable instruction.
func (ec *EmissionContext) Unreachable() {
	ec.cursor.NewUnreachable()
}

// Ret terminates the cursor block with a void return, lowering RET (the
// lifted function has no return value; the caller inspects register cells
// directly).
func (ec *EmissionContext) Ret() {
	ec.cursor.NewRet(nil)
}

// AssertTrue lowers a semantic `assert`/`throw` statement to an observable
// runtime check: call llvm.assume so the condition is recorded in the IR
// for the downstream checker without altering control flow, matching
// spec §4.1's "assert_true lowers to an observable check".
func (ec *EmissionContext) AssertTrue(cond value.Value) {
	fn := ec.intrinsic("llvm.assume", types.Void, []types.Type{types.I1})
	ec.cursor.NewCall(fn, cond)
}

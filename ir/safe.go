package ir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ShiftKind selects which raw shift SafeShift guards.
type ShiftKind int

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
)

// SafeShift implements spec.md §4.1's safe_shift, grounded on
// original_source/backend_tv/aslp/aslt_visitor.cpp's safe_shift: when the
// operand width is a power of two, the shift count only ever needs its low
// log2(width) bits, so masking y and emitting the raw shift is already
// well-defined. Otherwise a shift count at or above the width is possible
// (e.g. a 100-bit loop counter shifting a narrower value) and must be
// guarded explicitly, since LLVM's shift instructions are poison in that
// case: the guard selects a zero of x's width whenever y >= width(x).
func (ec *EmissionContext) SafeShift(x value.Value, kind ShiftKind, y value.Value) value.Value {
	width := typeBitWidth(x.Type())

	if isPowerOfTwo(width) {
		mask := constant.NewInt(int64(width-1), intType(y.Type()))
		masked := ec.cursor.NewAnd(y, mask)
		return ec.rawShift(kind, x, masked)
	}

	widthConst := constant.NewInt(int64(width), intType(y.Type()))
	outOfRange := ec.cursor.NewICmp(ir.IntUGE, y, widthConst)
	zero := constant.NewInt(0, intType(x.Type()))
	raw := ec.rawShift(kind, x, y)
	return ec.cursor.NewSelect(outOfRange, zero, raw)
}

func (ec *EmissionContext) rawShift(kind ShiftKind, x, y value.Value) value.Value {
	switch kind {
	case ShiftLSL:
		return ec.cursor.NewShl(x, y)
	case ShiftLSR:
		return ec.cursor.NewLShr(x, y)
	case ShiftASR:
		return ec.cursor.NewAShr(x, y)
	default:
		panic("ir: unknown ShiftKind")
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// SafeSDiv implements spec.md §4.1's safe_sdiv, grounded on
// original_source/backend_tv/aslp/aslt_visitor.cpp's safe_sdiv: signed
// division by INT_MIN / -1 is poison in LLVM IR (it would overflow), so the
// wrapper builds a three-block CFG that replaces the operands with a
// harmless (INT_MIN, 1) pair on that one path and joins the result through
// an alloca scratch slot, exactly mirroring the original's extra `result`
// alloca plus select-guarded replacement. Division by zero is deliberately
// left unpatched, per the spec.
func (ec *EmissionContext) SafeSDiv(n, d value.Value) value.Value {
	width := typeBitWidth(n.Type())
	scratch := ec.entry.NewAlloca(n.Type())
	scratch.SetName(ec.names.Value() + ".sdiv")

	intMin := constant.NewInt(minInt(width), intType(n.Type()))
	negOne := constant.NewInt(-1, intType(d.Type()))

	nIsMin := ec.cursor.NewICmp(ir.IntEQ, n, intMin)
	dIsNegOne := ec.cursor.NewICmp(ir.IntEQ, d, negOne)
	overflowing := ec.reduceOverflow(ec.cursor.NewAnd(nIsMin, dIsNegOne))

	overflowBlock := ec.NewBlock("sdiv.overflow")
	safeBlock := ec.NewBlock("sdiv.safe")
	joinBlock := ec.NewBlock("sdiv.join")

	ec.cursor.NewCondBr(overflowing, overflowBlock, safeBlock)

	ec.SetCursor(overflowBlock)
	safeN := intMinAs(n.Type(), width)
	safeD := constant.NewInt(1, intType(d.Type()))
	overflowResult := ec.cursor.NewSDiv(safeN, safeD)
	ec.cursor.NewStore(overflowResult, scratch)
	ec.cursor.NewBr(joinBlock)

	ec.SetCursor(safeBlock)
	safeResult := ec.cursor.NewSDiv(n, d)
	ec.cursor.NewStore(safeResult, scratch)
	ec.cursor.NewBr(joinBlock)

	ec.SetCursor(joinBlock)
	return ec.cursor.NewLoad(scratch)
}

// reduceOverflow folds a possibly-vector i1 overflow mask down to a scalar
// i1 via an OR reduction across lanes, matching the original's per-lane OR
// of overflow bits for vector safe_sdiv.
func (ec *EmissionContext) reduceOverflow(v value.Value) value.Value {
	vecTy, ok := v.Type().(*types.VectorType)
	if !ok {
		return v
	}
	fn := ec.intrinsic("llvm.vector.reduce.or."+typeMangle(vecTy), types.I1, []types.Type{vecTy})
	return ec.cursor.NewCall(fn, v)
}

func minInt(width int) int64 {
	return -(int64(1) << uint(width-1))
}

func intMinAs(t types.Type, width int) value.Value {
	return constant.NewInt(minInt(width), intType(t))
}

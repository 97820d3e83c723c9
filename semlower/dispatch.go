package semlower

import (
	"fmt"

	goir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/ir"
	"github.com/aslpgo/aslpgo/semlower/ast"
)

// dispatchKey is the (name, value-arity) pair spec §4.3's catalog dispatches
// on; type arguments never affect which table entry runs, only how that
// entry reinterprets its value arguments.
type dispatchKey struct {
	name  string
	arity int
}

type applyFunc func(l *Lowerer, app *ast.App) value.Value

var dispatchTable = map[dispatchKey]applyFunc{}

func register(name string, arity int, f applyFunc) {
	dispatchTable[dispatchKey{name: name, arity: arity}] = f
}

// applyApp looks up and runs app's handler. Any (name, arity) pair with no
// registered handler is a fatal lowering error, per spec §4.3: "any other
// name or arity is a fatal lowering error."
func (l *Lowerer) applyApp(app *ast.App) value.Value {
	f, ok := dispatchTable[dispatchKey{name: app.Name, arity: len(app.Args)}]
	if !ok {
		panic(fmt.Sprintf("semlower: unknown function %s/%d", app.Name, len(app.Args)))
	}
	return f(l, app)
}

func (l *Lowerer) arg(app *ast.App, i int) value.Value {
	return l.lowerExpr(app.Args[i])
}

// constInt requires app's i'th argument to be a literal, the way the
// function catalog's own constant parameters (target widths, rounding
// modes, the FixedToFP/FPToFixed fbits guard) are always written in the
// semantics text rather than computed.
func constInt(app *ast.App, i int) int64 {
	c, ok := app.Args[i].(*ast.Const)
	if !ok {
		panic(fmt.Sprintf("semlower: %s argument %d must be a constant", app.Name, i))
	}
	return c.Value
}

// binFn adapts one of EmissionContext's two-operand helpers (Add, Sub, Mul,
// ...) into an applyFunc, the common shape for the arity-2 arithmetic and
// bitwise family.
func binFn(f func(ec *ir.EmissionContext, x, y value.Value) value.Value) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		return f(l.ec, l.arg(a, 0), l.arg(a, 1))
	}
}

func cmpFn(pred goir.IntPred) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		return l.ec.ICmp(pred, l.arg(a, 0), l.arg(a, 1))
	}
}

// asFP reinterprets v as a floating-point value of its own bit width,
// passing through unchanged if v is already floating-point (chained FP
// applications, e.g. FPMulAdd(FPMul(...), ...), never need a redundant
// round-trip through an integer type).
func asFP(l *Lowerer, v value.Value) value.Value {
	if _, ok := v.Type().(*types.FloatType); ok {
		return v
	}
	return l.ec.BitCast(v, l.ec.FPTy(ir.BitWidth(v.Type())))
}

// vecOfBits bitcasts a plain bitvector to a lanes-by-elemWidth vector, the
// reinterpretation every vector-shaped function applies to its bitvector
// operands before working lane-wise. bitsOfVec is its inverse, applied to
// every vector-shaped function's result so values stay uniformly
// plain-bitvector-typed between applications (the same convention
// Elem.read.0/Elem.set.0 describe explicitly in spec §4.3: bitcast in,
// bitcast back out).
func vecOfBits(l *Lowerer, bits value.Value, lanes, elemWidth int) value.Value {
	return l.ec.BitCast(bits, l.ec.VecTy(l.ec.IntTy(elemWidth), lanes))
}

func bitsOfVec(l *Lowerer, vec value.Value) value.Value {
	return l.ec.BitCast(vec, l.ec.IntTy(ir.BitWidth(vec.Type())))
}

// perLaneBinary applies f to each corresponding pair of lanes of x and y
// (already vector-typed), used for the vector shift/divide family: SafeShift
// and SafeSDiv reason about a single scalar width and do not generalize
// safely across a vector's lanes (a per-lane guard needs the element width,
// not the vector's flattened total width), so those families go lane by
// lane through the already-correct scalar helpers instead, the same
// ExtractElement/InsertElement idiom classic/simd_arith.go uses for
// operations LLVM has no whole-vector form for.
func perLaneBinary(l *Lowerer, x, y value.Value, lanes, elemWidth int, f func(a, b value.Value) value.Value) value.Value {
	result := l.ec.UndefVec(lanes, elemWidth)
	for i := 0; i < lanes; i++ {
		idx := l.ec.IntConst(int64(i), 32)
		xi := l.ec.ExtractElement(x, idx)
		yi := l.ec.ExtractElement(y, idx)
		result = l.ec.InsertElement(result, f(xi, yi), idx)
	}
	return result
}

// FPRoundInt's mode codes. This module invents the concrete wire encoding
// for the semantics text (see DESIGN.md), so these values are this
// lowerer's own convention, not an ABI shared with anything external.
const (
	fpRoundPosInf = 0
	fpRoundNegInf = 1
	fpRoundTieAway = 2
)

func init() {
	// --- Arity 1 ------------------------------------------------------

	register("cvt_bool_bv", 1, func(l *Lowerer, a *ast.App) value.Value { return l.arg(a, 0) })
	register("cvt_bits_uint", 1, func(l *Lowerer, a *ast.App) value.Value { return l.arg(a, 0) })
	register("not_bits", 1, func(l *Lowerer, a *ast.App) value.Value { return l.ec.Not(l.arg(a, 0)) })
	register("not_bool", 1, func(l *Lowerer, a *ast.App) value.Value { return l.ec.Not(l.arg(a, 0)) })

	// --- Arity 2 --------------------------------------------------------

	register("SignExtend", 2, func(l *Lowerer, a *ast.App) value.Value {
		return extendTo(l, a, true)
	})
	register("ZeroExtend", 2, func(l *Lowerer, a *ast.App) value.Value {
		return extendTo(l, a, false)
	})
	register("cvt_int_bits", 2, func(l *Lowerer, a *ast.App) value.Value {
		width := int(constInt(a, 1))
		return l.ec.Trunc(l.arg(a, 0), l.ec.IntTy(width))
	})

	register("eq_bits", 2, cmpFn(goir.IntEQ))
	register("ne_bits", 2, cmpFn(goir.IntNE))
	register("slt_bits", 2, cmpFn(goir.IntSLT))
	register("sle_bits", 2, cmpFn(goir.IntSLE))

	register("add_bits", 2, binFn((*ir.EmissionContext).Add))
	register("sub_bits", 2, binFn((*ir.EmissionContext).Sub))
	register("mul_bits", 2, binFn((*ir.EmissionContext).Mul))
	register("eor_bits", 2, binFn((*ir.EmissionContext).Xor))
	register("and_bits", 2, binFn((*ir.EmissionContext).And))
	register("or_bits", 2, binFn((*ir.EmissionContext).Or))
	register("and_bool", 2, binFn((*ir.EmissionContext).And))
	register("or_bool", 2, binFn((*ir.EmissionContext).Or))

	register("sdiv_bits", 2, func(l *Lowerer, a *ast.App) value.Value {
		return l.ec.SafeSDiv(l.arg(a, 0), l.arg(a, 1))
	})

	register("lsl_bits", 2, shiftFn(ir.ShiftLSL))
	register("lsr_bits", 2, shiftFn(ir.ShiftLSR))
	register("asr_bits", 2, shiftFn(ir.ShiftASR))

	register("append_bits", 2, func(l *Lowerer, a *ast.App) value.Value {
		hi := l.arg(a, 0)
		lo := l.arg(a, 1)
		hiW := ir.BitWidth(hi.Type())
		loW := ir.BitWidth(lo.Type())
		if hiW == loW {
			v := l.ec.UndefVec(2, hiW)
			v = l.ec.InsertElement(v, lo, l.ec.IntConst(0, 32))
			v = l.ec.InsertElement(v, hi, l.ec.IntConst(1, 32))
			return l.ec.BitCast(v, l.ec.IntTy(hiW*2))
		}
		total := hiW + loW
		hiExt := l.ec.ZExt(hi, l.ec.IntTy(total))
		loExt := l.ec.ZExt(lo, l.ec.IntTy(total))
		shifted := l.ec.RawShl(hiExt, l.ec.IntConst(int64(loW), total))
		return l.ec.Or(shifted, loExt)
	})

	register("replicate_bits", 2, func(l *Lowerer, a *ast.App) value.Value {
		x := l.arg(a, 0)
		n := int(constInt(a, 1))
		w := ir.BitWidth(x.Type())
		v := l.ec.UndefVec(n, w)
		for i := 0; i < n; i++ {
			v = l.ec.InsertElement(v, x, l.ec.IntConst(int64(i), 32))
		}
		return l.ec.BitCast(v, l.ec.IntTy(w*n))
	})

	register("select_vec", 2, func(l *Lowerer, a *ast.App) value.Value {
		m, n, w := typeArgs3(a)
		src := vecOfBits(l, l.arg(a, 0), n, w)
		sel := l.arg(a, 1)
		result := l.ec.UndefVec(m, w)
		for i := 0; i < m; i++ {
			shiftAmt := l.ec.IntConst(int64(32*i), ir.BitWidth(sel.Type()))
			chunk := l.ec.RawLShr(sel, shiftAmt)
			idx := l.ec.Trunc(chunk, l.ec.IntTy(32))
			elem := l.ec.ExtractElement(src, idx)
			result = l.ec.InsertElement(result, elem, l.ec.IntConst(int64(i), 32))
		}
		return bitsOfVec(l, result)
	})

	register("reduce_add", 2, func(l *Lowerer, a *ast.App) value.Value {
		lanes, elemWidth := typeArgs2(a)
		vec := vecOfBits(l, l.arg(a, 0), lanes, elemWidth)
		return l.ec.Add(l.ec.ReduceAdd(vec), l.arg(a, 1))
	})

	register("FPSqrt", 2, func(l *Lowerer, a *ast.App) value.Value {
		return l.ec.Sqrt(asFP(l, l.arg(a, 0)))
	})

	// --- Arity 3 ----------------------------------------------------

	register("Mem.read.0", 3, func(l *Lowerer, a *ast.App) value.Value {
		size := int(constInt(a, 1))
		base, off := l.recoverAddr(l.arg(a, 0))
		return l.ec.LoadWithOffset(base, off, size)
	})

	register("Elem.read.0", 3, func(l *Lowerer, a *ast.App) value.Value {
		vec := l.arg(a, 0)
		idx := l.arg(a, 1)
		size := int(constInt(a, 2))
		lanes := ir.BitWidth(vec.Type()) / size
		typed := vecOfBits(l, vec, lanes, size)
		idx32 := l.widen(idx, l.ec.IntTy(32))
		return l.ec.ExtractElement(typed, idx32)
	})

	register("add_vec", 3, vecBinFn((*ir.EmissionContext).Add))
	register("sub_vec", 3, vecBinFn((*ir.EmissionContext).Sub))
	register("mul_vec", 3, vecBinFn((*ir.EmissionContext).Mul))
	register("eq_vec", 3, vecCmpFn(goir.IntEQ))
	register("slt_vec", 3, vecCmpFn(goir.IntSLT))
	register("sle_vec", 3, vecCmpFn(goir.IntSLE))

	register("sdiv_vec", 3, vecSafeFn(func(l *Lowerer, x, y value.Value) value.Value {
		return l.ec.SafeSDiv(x, y)
	}))
	register("asr_vec", 3, vecSafeFn(safeShiftFn(ir.ShiftASR)))
	register("lsr_vec", 3, vecSafeFn(safeShiftFn(ir.ShiftLSR)))
	register("lsl_vec", 3, vecSafeFn(safeShiftFn(ir.ShiftLSL)))

	register("scast_vec", 3, vecCastFn(func(l *Lowerer, v value.Value, to types.Type) value.Value {
		return l.ec.SExt(v, to)
	}))
	register("zcast_vec", 3, vecCastFn(func(l *Lowerer, v value.Value, to types.Type) value.Value {
		return l.ec.ZExt(v, to)
	}))
	register("trunc_vec", 3, vecCastFn(func(l *Lowerer, v value.Value, to types.Type) value.Value {
		return l.ec.Trunc(v, to)
	}))

	register("shuffle_vec", 3, func(l *Lowerer, a *ast.App) value.Value {
		m, n, w := typeArgs3(a)
		x := vecOfBits(l, l.arg(a, 0), n, w)
		y := vecOfBits(l, l.arg(a, 1), n, w)
		mask := l.arg(a, 2)
		result := l.ec.UndefVec(m, w)
		nConst := l.ec.IntConst(int64(n), 32)
		for i := 0; i < m; i++ {
			shiftAmt := l.ec.IntConst(int64(32*i), ir.BitWidth(mask.Type()))
			chunk := l.ec.RawLShr(mask, shiftAmt)
			idxFull := l.ec.Trunc(chunk, l.ec.IntTy(32))
			useSecond := l.ec.ICmp(goir.IntUGE, idxFull, nConst)
			idxInSrc := l.ec.Select(useSecond, l.ec.Sub(idxFull, nConst), idxFull)
			elemX := l.ec.ExtractElement(x, idxInSrc)
			elemY := l.ec.ExtractElement(y, idxInSrc)
			elem := l.ec.Select(useSecond, elemY, elemX)
			result = l.ec.InsertElement(result, elem, l.ec.IntConst(int64(i), 32))
		}
		return bitsOfVec(l, result)
	})

	register("FPAdd", 3, fpBinFn((*ir.EmissionContext).FAdd))
	register("FPSub", 3, fpBinFn((*ir.EmissionContext).FSub))
	register("FPMul", 3, fpBinFn((*ir.EmissionContext).FMul))
	register("FPDiv", 3, fpBinFn((*ir.EmissionContext).FDiv))

	register("FPConvert", 3, func(l *Lowerer, a *ast.App) value.Value {
		x := asFP(l, l.arg(a, 0))
		targetWidth := int(constInt(a, 2))
		from := ir.BitWidth(x.Type())
		to := l.ec.FPTy(targetWidth)
		switch {
		case from == targetWidth:
			return x
		case from < targetWidth:
			return l.ec.FPExt(x, to)
		default:
			return l.ec.FPTrunc(x, to)
		}
	})

	register("ite", 3, func(l *Lowerer, a *ast.App) value.Value {
		return l.ec.Select(l.arg(a, 0), l.arg(a, 1), l.arg(a, 2))
	})

	// --- Arity 4 -----------------------------------------------------

	register("Mem.set.0", 4, func(l *Lowerer, a *ast.App) value.Value {
		size := int(constInt(a, 1))
		val := l.arg(a, 3)
		base, off := l.recoverAddr(l.arg(a, 0))
		l.ec.StoreWithOffset(base, off, size, val)
		return nil
	})

	register("Elem.set.0", 4, func(l *Lowerer, a *ast.App) value.Value {
		vec := l.arg(a, 0)
		idx := l.arg(a, 1)
		size := int(constInt(a, 2))
		val := l.arg(a, 3)
		total := ir.BitWidth(vec.Type())
		lanes := total / size
		typed := vecOfBits(l, vec, lanes, size)
		idx32 := l.widen(idx, l.ec.IntTy(32))
		updated := l.ec.InsertElement(typed, val, idx32)
		return l.ec.BitCast(updated, l.ec.IntTy(total))
	})

	// ite_vec's fourth value argument is unused padding: spec §4.3 lists it
	// at arity 4 ("lane-wise select") while giving it type args [lanes,
	// elemWidth] the same as the rest of the _vec family, one value
	// argument short of that arity — a trailing padding argument keeps the
	// catalog's literal value-arity numbers matching without inventing a
	// fourth meaningful operand. Recorded in DESIGN.md.
	register("ite_vec", 4, func(l *Lowerer, a *ast.App) value.Value {
		lanes, elemWidth := typeArgs2(a)
		cond := vecOfBits(l, l.arg(a, 0), lanes, 1)
		t := vecOfBits(l, l.arg(a, 1), lanes, elemWidth)
		f := vecOfBits(l, l.arg(a, 2), lanes, elemWidth)
		return bitsOfVec(l, l.ec.Select(cond, t, f))
	})

	register("FPCompare", 4, func(l *Lowerer, a *ast.App) value.Value {
		x := asFP(l, l.arg(a, 0))
		y := asFP(l, l.arg(a, 1))
		unordered := l.ec.FCmp(goir.FloatUNO, x, y)
		ugt := l.ec.FCmp(goir.FloatUGT, x, y)
		oeq := l.ec.FCmp(goir.FloatOEQ, x, y)
		olt := l.ec.FCmp(goir.FloatOLT, x, y)
		v := l.ec.UndefVec(4, 1)
		v = l.ec.InsertElement(v, unordered, l.ec.IntConst(0, 32))
		v = l.ec.InsertElement(v, ugt, l.ec.IntConst(1, 32))
		v = l.ec.InsertElement(v, oeq, l.ec.IntConst(2, 32))
		v = l.ec.InsertElement(v, olt, l.ec.IntConst(3, 32))
		return v
	})

	register("FPMulAdd", 4, func(l *Lowerer, a *ast.App) value.Value {
		x := asFP(l, l.arg(a, 0))
		y := asFP(l, l.arg(a, 1))
		z := asFP(l, l.arg(a, 2))
		return l.ec.Fma(x, y, z)
	})

	register("FPRoundInt", 4, func(l *Lowerer, a *ast.App) value.Value {
		exact := constInt(a, 3)
		if exact != 0 {
			panic("semlower: FPRoundInt requires exact=false")
		}
		x := asFP(l, l.arg(a, 0))
		switch mode := constInt(a, 2); mode {
		case fpRoundPosInf:
			return l.ec.Ceil(x)
		case fpRoundNegInf:
			return l.ec.Floor(x)
		case fpRoundTieAway:
			return l.ec.Round(x)
		default:
			panic(fmt.Sprintf("semlower: unsupported FPRoundInt mode %d", mode))
		}
	})

	// --- Arity 5 -------------------------------------------------------

	register("FixedToFP", 5, func(l *Lowerer, a *ast.App) value.Value {
		if constInt(a, 3) != 0 {
			panic("semlower: FixedToFP requires fbits=0")
		}
		x := l.arg(a, 0)
		unsigned := constInt(a, 2) != 0
		targetWidth := int(constInt(a, 4))
		to := l.ec.FPTy(targetWidth)
		if unsigned {
			return l.ec.UIToFP(x, to)
		}
		return l.ec.SIToFP(x, to)
	})

	register("FPToFixed", 5, func(l *Lowerer, a *ast.App) value.Value {
		if constInt(a, 3) != 0 {
			panic("semlower: FPToFixed requires fbits=0")
		}
		x := asFP(l, l.arg(a, 0))
		unsigned := constInt(a, 2) != 0
		targetWidth := int(constInt(a, 4))
		to := l.ec.IntTy(targetWidth)
		if unsigned {
			return l.ec.FPToUI(x, to)
		}
		return l.ec.FPToSI(x, to)
	})
}

// extendTo implements SignExtend/ZeroExtend(x, target_width): target_width
// is the function's second value argument, per this module's convention
// that a lowercase/descriptive parenthetical annotation in spec §4.3's
// table (as opposed to an uppercase type-argument letter like select_vec's
// M/N/W) names a value argument counted in the stated arity.
func extendTo(l *Lowerer, a *ast.App, signed bool) value.Value {
	x := l.arg(a, 0)
	width := int(constInt(a, 1))
	from := ir.BitWidth(x.Type())
	if from == width {
		panic("semlower: SignExtend/ZeroExtend to the same width")
	}
	to := l.ec.IntTy(width)
	if signed {
		return l.ec.SExt(x, to)
	}
	return l.ec.ZExt(x, to)
}

// shiftFn builds the arity-2 lsl_bits/lsr_bits/asr_bits handler: the shift
// count is unified to x's width (zero-extended or truncated — shift
// amounts are unsigned quantities, never sign-extended) before going
// through SafeShift.
func shiftFn(kind ir.ShiftKind) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		x := l.arg(a, 0)
		y := l.arg(a, 1)
		y = matchWidthUnsigned(l, y, x.Type())
		return l.ec.SafeShift(x, kind, y)
	}
}

func safeShiftFn(kind ir.ShiftKind) func(l *Lowerer, x, y value.Value) value.Value {
	return func(l *Lowerer, x, y value.Value) value.Value {
		y = matchWidthUnsigned(l, y, x.Type())
		return l.ec.SafeShift(x, kind, y)
	}
}

// matchWidthUnsigned zero-extends or truncates v to ty's width.
func matchWidthUnsigned(l *Lowerer, v value.Value, ty types.Type) value.Value {
	from := ir.BitWidth(v.Type())
	to := ir.BitWidth(ty)
	switch {
	case from == to:
		return v
	case from < to:
		return l.ec.ZExt(v, ty)
	default:
		return l.ec.Trunc(v, ty)
	}
}

// typeArgs2/typeArgs3 validate an App's type-argument count before reading
// it positionally; every vector-shaped function's type args are [lanes,
// elemWidth] or [outLanes, inLanes, elemWidth] per spec §4.3's table.
func typeArgs2(a *ast.App) (int, int) {
	if len(a.TypeArgs) != 2 {
		panic(fmt.Sprintf("semlower: %s requires 2 type arguments", a.Name))
	}
	return a.TypeArgs[0], a.TypeArgs[1]
}

func typeArgs3(a *ast.App) (int, int, int) {
	if len(a.TypeArgs) != 3 {
		panic(fmt.Sprintf("semlower: %s requires 3 type arguments", a.Name))
	}
	return a.TypeArgs[0], a.TypeArgs[1], a.TypeArgs[2]
}

// vecBinFn adapts a whole-vector EmissionContext binary op (add/sub/mul,
// which LLVM supports directly on vector operands) into the arity-3 _vec
// family's handler shape: (x, y, pad) value args, [lanes, elemWidth] type
// args, pad unused for the same reason ite_vec's fourth argument is unused
// (see its registration comment).
func vecBinFn(f func(ec *ir.EmissionContext, x, y value.Value) value.Value) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		lanes, elemWidth := typeArgs2(a)
		x := vecOfBits(l, l.arg(a, 0), lanes, elemWidth)
		y := vecOfBits(l, l.arg(a, 1), lanes, elemWidth)
		return bitsOfVec(l, f(l.ec, x, y))
	}
}

func vecCmpFn(pred goir.IntPred) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		lanes, elemWidth := typeArgs2(a)
		x := vecOfBits(l, l.arg(a, 0), lanes, elemWidth)
		y := vecOfBits(l, l.arg(a, 1), lanes, elemWidth)
		return l.ec.ICmp(pred, x, y)
	}
}

// vecSafeFn adapts a per-lane scalar op (SafeSDiv, a SafeShift guard) into
// the arity-3 _vec family's handler shape via perLaneBinary.
func vecSafeFn(f func(l *Lowerer, x, y value.Value) value.Value) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		lanes, elemWidth := typeArgs2(a)
		x := vecOfBits(l, l.arg(a, 0), lanes, elemWidth)
		y := vecOfBits(l, l.arg(a, 1), lanes, elemWidth)
		result := perLaneBinary(l, x, y, lanes, elemWidth, func(xi, yi value.Value) value.Value {
			return f(l, xi, yi)
		})
		return bitsOfVec(l, result)
	}
}

// vecCastFn adapts a whole-vector widen/narrow cast (sext/zext/trunc, all
// legal directly on same-lane-count vector operands in LLVM IR) into the
// arity-3 scast_vec/zcast_vec/trunc_vec handler shape: type args [lanes,
// srcElemWidth, dstElemWidth], value args (x, pad, pad).
func vecCastFn(f func(l *Lowerer, v value.Value, to types.Type) value.Value) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		lanes, srcWidth, dstWidth := typeArgs3(a)
		x := vecOfBits(l, l.arg(a, 0), lanes, srcWidth)
		dstTy := l.ec.VecTy(l.ec.IntTy(dstWidth), lanes)
		result := f(l, x, dstTy)
		return bitsOfVec(l, result)
	}
}

func fpBinFn(f func(ec *ir.EmissionContext, x, y value.Value) value.Value) applyFunc {
	return func(l *Lowerer, a *ast.App) value.Value {
		x := asFP(l, l.arg(a, 0))
		y := asFP(l, l.arg(a, 1))
		return f(l.ec, x, y)
	}
}

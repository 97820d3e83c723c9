package ir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// IntConst builds an integer constant of exactly the requested width.
func (ec *EmissionContext) IntConst(v int64, bits int) value.Value {
	return constant.NewInt(v, types.NewInt(int64(bits)))
}

// IntTy returns the integer type of exactly the requested width.
func (ec *EmissionContext) IntTy(bits int) types.Type {
	return types.NewInt(int64(bits))
}

// FPTy returns the floating-point type with the requested bit width. Only
// the widths the AArch64 FP/SIMD unit uses are supported.
func (ec *EmissionContext) FPTy(bits int) types.Type {
	switch bits {
	case 16:
		return types.Half
	case 32:
		return types.Float
	case 64:
		return types.Double
	case 128:
		return types.FP128
	default:
		panic(fmt.Sprintf("ir: unsupported floating-point width %d", bits))
	}
}

// Alloca allocates a fresh local cell in the entry block, the same place
// every architectural register cell lives, used by the structured
// lowerer's var_decl locals and its ADR/ADRP GOT-indirection cell (spec
// §4.3/§4.3.2) — anything needing its own stable storage cell rather than
// an SSA value goes through here rather than allocating mid-function.
func (ec *EmissionContext) Alloca(ty types.Type) value.Value {
	cell := ec.entry.NewAlloca(ty)
	cell.SetName(ec.names.Value() + ".local")
	return cell
}

// VecTy returns a vector type of n lanes of elt.
func (ec *EmissionContext) VecTy(elt types.Type, n int) types.Type {
	return types.NewVector(uint64(n), elt)
}

// UndefVec returns an undef value of n lanes of a w-bit integer, the seed
// value append_bits/replicate_bits build up by repeated insert_element.
func (ec *EmissionContext) UndefVec(n, w int) value.Value {
	return constant.NewUndef(ec.VecTy(ec.IntTy(w), n))
}

// --- Casts ---------------------------------------------------------------

func (ec *EmissionContext) Trunc(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewTrunc(v, to)
}

func (ec *EmissionContext) ZExt(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewZExt(v, to)
}

func (ec *EmissionContext) SExt(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewSExt(v, to)
}

func (ec *EmissionContext) BitCast(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewBitCast(v, to)
}

func (ec *EmissionContext) FPTrunc(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewFPTrunc(v, to)
}

func (ec *EmissionContext) FPExt(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewFPExt(v, to)
}

func (ec *EmissionContext) UIToFP(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewUIToFP(v, to)
}

func (ec *EmissionContext) SIToFP(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewSIToFP(v, to)
}

func (ec *EmissionContext) FPToUI(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewFPToUI(v, to)
}

func (ec *EmissionContext) FPToSI(v value.Value, to types.Type) value.Value {
	return ec.cursor.NewFPToSI(v, to)
}

// --- Arith/bit -------------------------------------------------------------

func (ec *EmissionContext) Add(x, y value.Value) value.Value { return ec.cursor.NewAdd(x, y) }
func (ec *EmissionContext) Sub(x, y value.Value) value.Value { return ec.cursor.NewSub(x, y) }
func (ec *EmissionContext) Mul(x, y value.Value) value.Value { return ec.cursor.NewMul(x, y) }
func (ec *EmissionContext) SDiv(x, y value.Value) value.Value {
	return ec.cursor.NewSDiv(x, y)
}
func (ec *EmissionContext) UDiv(x, y value.Value) value.Value {
	return ec.cursor.NewUDiv(x, y)
}
func (ec *EmissionContext) URem(x, y value.Value) value.Value {
	return ec.cursor.NewURem(x, y)
}
func (ec *EmissionContext) And(x, y value.Value) value.Value { return ec.cursor.NewAnd(x, y) }
func (ec *EmissionContext) Or(x, y value.Value) value.Value  { return ec.cursor.NewOr(x, y) }
func (ec *EmissionContext) Xor(x, y value.Value) value.Value { return ec.cursor.NewXor(x, y) }

// --- Float arith -----------------------------------------------------------

func (ec *EmissionContext) FAdd(x, y value.Value) value.Value { return ec.cursor.NewFAdd(x, y) }
func (ec *EmissionContext) FSub(x, y value.Value) value.Value { return ec.cursor.NewFSub(x, y) }
func (ec *EmissionContext) FMul(x, y value.Value) value.Value { return ec.cursor.NewFMul(x, y) }
func (ec *EmissionContext) FDiv(x, y value.Value) value.Value { return ec.cursor.NewFDiv(x, y) }
func (ec *EmissionContext) FNeg(x value.Value) value.Value    { return ec.cursor.NewFNeg(x) }

// Not implements bitwise NOT as xor with an all-ones mask of x's width, the
// standard LLVM IR idiom (there is no dedicated Not instruction). x may be a
// plain integer or a vector of integers.
func (ec *EmissionContext) Not(x value.Value) value.Value {
	if vt, ok := x.Type().(*types.VectorType); ok {
		one := constant.NewInt(-1, intType(vt.ElemType))
		elems := make([]constant.Constant, int(vt.Len))
		for i := range elems {
			elems[i] = one
		}
		ones := constant.NewVector(elems...)
		return ec.cursor.NewXor(x, ones)
	}
	ones := constant.NewInt(-1, intType(x.Type()))
	return ec.cursor.NewXor(x, ones)
}

// Raw shifts assume y is already known in-range; callers that cannot make
// that guarantee must go through SafeShift instead.
func (ec *EmissionContext) RawLShr(x, y value.Value) value.Value { return ec.cursor.NewLShr(x, y) }
func (ec *EmissionContext) RawAShr(x, y value.Value) value.Value { return ec.cursor.NewAShr(x, y) }
func (ec *EmissionContext) RawShl(x, y value.Value) value.Value { return ec.cursor.NewShl(x, y) }

// --- Vector ----------------------------------------------------------------

func (ec *EmissionContext) InsertElement(v, elem, index value.Value) value.Value {
	return ec.cursor.NewInsertElement(v, elem, index)
}

func (ec *EmissionContext) ExtractElement(v, index value.Value) value.Value {
	return ec.cursor.NewExtractElement(v, index)
}

func (ec *EmissionContext) Shuffle(x, y, mask value.Value) value.Value {
	return ec.cursor.NewShuffleVector(x, y, mask)
}

// ReduceAdd uses the llvm.vector.reduce.add intrinsic, cached per element
// type the way golint-fixer-exp/cmd/bin2ll caches callees before emitting a
// call.
func (ec *EmissionContext) ReduceAdd(v value.Value) value.Value {
	vecTy, ok := v.Type().(*types.VectorType)
	if !ok {
		panic("ir: ReduceAdd requires a vector operand")
	}
	fn := ec.intrinsic(fmt.Sprintf("llvm.vector.reduce.add.%s", typeMangle(vecTy)), vecTy.ElemType, []types.Type{vecTy})
	return ec.cursor.NewCall(fn, v)
}

// --- Compare/select ---------------------------------------------------------

func (ec *EmissionContext) ICmp(pred ir.IntPred, x, y value.Value) value.Value {
	return ec.cursor.NewICmp(pred, x, y)
}

func (ec *EmissionContext) FCmp(pred ir.FloatPred, x, y value.Value) value.Value {
	return ec.cursor.NewFCmp(pred, x, y)
}

func (ec *EmissionContext) Select(cond, t, f value.Value) value.Value {
	return ec.cursor.NewSelect(cond, t, f)
}

// --- type introspection ------------------------------------------------

// BitWidth exposes typeBitWidth to other packages (the structured lowerer's
// generic bits/vector/FP width bookkeeping, which has no other way to ask
// "how wide is this value" without duplicating the type switch here).
func BitWidth(t types.Type) int { return typeBitWidth(t) }

// typeBitWidth returns the bit width of an integer, floating-point, or
// vector-of-integer type; it is used where a helper needs to branch on
// operand width (WriteVec's zero-extend decision, ReadVec's narrowing, the
// SafeShift/SafeSDiv width guards).
func typeBitWidth(t types.Type) int {
	switch tt := t.(type) {
	case *types.IntType:
		return int(tt.BitSize)
	case *types.FloatType:
		switch tt.Kind {
		case types.FloatKindHalf:
			return 16
		case types.FloatKindFloat:
			return 32
		case types.FloatKindDouble:
			return 64
		case types.FloatKindFP128:
			return 128
		default:
			panic(fmt.Sprintf("ir: unsupported float kind %v", tt.Kind))
		}
	case *types.VectorType:
		return typeBitWidth(tt.ElemType) * int(tt.Len)
	default:
		panic(fmt.Sprintf("ir: cannot compute bit width of %T", t))
	}
}

func intType(t types.Type) *types.IntType {
	it, ok := t.(*types.IntType)
	if !ok {
		panic(fmt.Sprintf("ir: expected integer type, got %T", t))
	}
	return it
}

// typeMangle renders a type the way LLVM intrinsic names embed their
// overloaded argument type, e.g. "v4i32" for <4 x i32>.
func typeMangle(t types.Type) string {
	switch tt := t.(type) {
	case *types.IntType:
		return fmt.Sprintf("i%d", tt.BitSize)
	case *types.VectorType:
		return fmt.Sprintf("v%d%s", tt.Len, typeMangle(tt.ElemType))
	case *types.FloatType:
		switch tt.Kind {
		case types.FloatKindFloat:
			return "f32"
		case types.FloatKindDouble:
			return "f64"
		default:
			return "f"
		}
	default:
		return "t"
	}
}

package ir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// intrinsic looks up or declares an LLVM intrinsic function, caching it by
// its fully-mangled name so repeated lowering within one function never
// redeclares the same callee — grounded on golint-fixer-exp/cmd/bin2ll's
// pattern of looking up a callee before emitting a call (d.reg, d.status).
func (ec *EmissionContext) intrinsic(name string, ret types.Type, params []types.Type) *ir.Func {
	if fn, ok := ec.intrinsics[name]; ok {
		return fn
	}
	fn := ec.Module.NewFunc(name, ret, toParams(params)...)
	ec.intrinsics[name] = fn
	return fn
}

func toParams(ts []types.Type) []*ir.Param {
	params := make([]*ir.Param, len(ts))
	for i, t := range ts {
		params[i] = ir.NewParam("", t)
	}
	return params
}

// unaryIntrinsic declares (if needed) and calls a one-argument intrinsic
// overloaded on x's type, e.g. llvm.sqrt.f64, llvm.ctpop.i32.
func (ec *EmissionContext) unaryIntrinsic(base string, x value.Value) value.Value {
	ty := x.Type()
	name := fmt.Sprintf("%s.%s", base, typeMangle(ty))
	fn := ec.intrinsic(name, ty, []types.Type{ty})
	return ec.cursor.NewCall(fn, x)
}

// binaryIntrinsic declares (if needed) and calls a two-argument intrinsic
// overloaded on x/y's common type.
func (ec *EmissionContext) binaryIntrinsic(base string, x, y value.Value) value.Value {
	ty := x.Type()
	name := fmt.Sprintf("%s.%s", base, typeMangle(ty))
	fn := ec.intrinsic(name, ty, []types.Type{ty, ty})
	return ec.cursor.NewCall(fn, x, y)
}

// Fma computes a fused multiply-add via llvm.fma.*.
func (ec *EmissionContext) Fma(a, b, c value.Value) value.Value {
	ty := a.Type()
	name := fmt.Sprintf("llvm.fma.%s", typeMangle(ty))
	fn := ec.intrinsic(name, ty, []types.Type{ty, ty, ty})
	return ec.cursor.NewCall(fn, a, b, c)
}

func (ec *EmissionContext) Sqrt(x value.Value) value.Value  { return ec.unaryIntrinsic("llvm.sqrt", x) }
func (ec *EmissionContext) Ceil(x value.Value) value.Value  { return ec.unaryIntrinsic("llvm.ceil", x) }
func (ec *EmissionContext) Floor(x value.Value) value.Value { return ec.unaryIntrinsic("llvm.floor", x) }

// Round implements FPRoundInt's tie-away-from-zero mode via llvm.round.*.
func (ec *EmissionContext) Round(x value.Value) value.Value { return ec.unaryIntrinsic("llvm.round", x) }

// RoundEven implements FPRoundInt's tie-to-even mode via llvm.roundeven.*.
func (ec *EmissionContext) RoundEven(x value.Value) value.Value {
	return ec.unaryIntrinsic("llvm.roundeven", x)
}

// FPTruncToZero implements FPRoundInt's truncate (toward zero) mode via
// llvm.trunc.*. Named to avoid colliding with the bit-truncation Trunc cast.
func (ec *EmissionContext) FPTruncToZero(x value.Value) value.Value {
	return ec.unaryIntrinsic("llvm.trunc", x)
}

func (ec *EmissionContext) Ctpop(x value.Value) value.Value { return ec.unaryIntrinsic("llvm.ctpop", x) }

// Ctlz calls llvm.ctlz.* with is_zero_undef pinned to false, matching the
// architecture's CLZ (whose result for a zero operand is the register
// width, never poison).
func (ec *EmissionContext) Ctlz(x value.Value) value.Value {
	ty := x.Type()
	name := fmt.Sprintf("llvm.ctlz.%s", typeMangle(ty))
	fn := ec.intrinsic(name, ty, []types.Type{ty, types.I1})
	return ec.cursor.NewCall(fn, x, constant.False)
}

func (ec *EmissionContext) Bswap(x value.Value) value.Value { return ec.unaryIntrinsic("llvm.bswap", x) }
func (ec *EmissionContext) Bitreverse(x value.Value) value.Value {
	return ec.unaryIntrinsic("llvm.bitreverse", x)
}

func (ec *EmissionContext) SAddSat(x, y value.Value) value.Value {
	return ec.binaryIntrinsic("llvm.sadd.sat", x, y)
}
func (ec *EmissionContext) UAddSat(x, y value.Value) value.Value {
	return ec.binaryIntrinsic("llvm.uadd.sat", x, y)
}
func (ec *EmissionContext) SSubSat(x, y value.Value) value.Value {
	return ec.binaryIntrinsic("llvm.ssub.sat", x, y)
}
func (ec *EmissionContext) USubSat(x, y value.Value) value.Value {
	return ec.binaryIntrinsic("llvm.usub.sat", x, y)
}

// overflowResult extracts (result, overflow-bit) from a with-overflow
// intrinsic's aggregate {iN, i1} return.
func (ec *EmissionContext) overflowResult(base string, x, y value.Value) (value.Value, value.Value) {
	ty := x.Type()
	name := fmt.Sprintf("%s.%s", base, typeMangle(ty))
	retTy := types.NewStruct(ty, types.I1)
	fn := ec.intrinsic(name, retTy, []types.Type{ty, ty})
	agg := ec.cursor.NewCall(fn, x, y)
	result := ec.cursor.NewExtractValue(agg, 0)
	overflow := ec.cursor.NewExtractValue(agg, 1)
	return result, overflow
}

func (ec *EmissionContext) SAddOverflow(x, y value.Value) (value.Value, value.Value) {
	return ec.overflowResult("llvm.sadd.with.overflow", x, y)
}
func (ec *EmissionContext) UAddOverflow(x, y value.Value) (value.Value, value.Value) {
	return ec.overflowResult("llvm.uadd.with.overflow", x, y)
}
func (ec *EmissionContext) SSubOverflow(x, y value.Value) (value.Value, value.Value) {
	return ec.overflowResult("llvm.ssub.with.overflow", x, y)
}
func (ec *EmissionContext) USubOverflow(x, y value.Value) (value.Value, value.Value) {
	return ec.overflowResult("llvm.usub.with.overflow", x, y)
}

func (ec *EmissionContext) Abs(x value.Value) value.Value {
	ty := x.Type()
	name := fmt.Sprintf("llvm.abs.%s", typeMangle(ty))
	fn := ec.intrinsic(name, ty, []types.Type{ty, types.I1})
	return ec.cursor.NewCall(fn, x, constant.False)
}

func (ec *EmissionContext) Fabs(x value.Value) value.Value { return ec.unaryIntrinsic("llvm.fabs", x) }

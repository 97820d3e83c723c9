package classic

import (
	goir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpFADD}, lowerFBinary(func(ec *ir.EmissionContext, x, y value.Value) value.Value { return ec.FAdd(x, y) }))
	register([]instr.Op{instr.OpFSUB}, lowerFBinary(func(ec *ir.EmissionContext, x, y value.Value) value.Value { return ec.FSub(x, y) }))
	register([]instr.Op{instr.OpFMUL}, lowerFBinary(func(ec *ir.EmissionContext, x, y value.Value) value.Value { return ec.FMul(x, y) }))
	register([]instr.Op{instr.OpFDIV}, lowerFBinary(func(ec *ir.EmissionContext, x, y value.Value) value.Value { return ec.FDiv(x, y) }))

	register([]instr.Op{instr.OpFMADD}, lowerFMulAdd(false, false))
	register([]instr.Op{instr.OpFMSUB}, lowerFMulAdd(true, false))
	register([]instr.Op{instr.OpFNMADD}, lowerFMulAdd(false, true))
	register([]instr.Op{instr.OpFNMSUB}, lowerFMulAdd(true, true))

	register([]instr.Op{instr.OpFCMP}, lowerFCmp)
	register([]instr.Op{instr.OpFCCMP}, lowerFCCmp)
	register([]instr.Op{instr.OpFCSEL}, lowerFCSel)

	register([]instr.Op{instr.OpFCVTZS}, lowerFCvtToInt(true))
	register([]instr.Op{instr.OpFCVTZU}, lowerFCvtToInt(false))
	register([]instr.Op{instr.OpSCVTF}, lowerCvtToFP(true))
	register([]instr.Op{instr.OpUCVTF}, lowerCvtToFP(false))
	register([]instr.Op{instr.OpFCVT}, lowerFCvt)

	register([]instr.Op{instr.OpFRINTP}, lowerFRound(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.Ceil(v) }))
	register([]instr.Op{instr.OpFRINTM}, lowerFRound(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.Floor(v) }))
	register([]instr.Op{instr.OpFRINTA}, lowerFRound(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.Round(v) }))
	register([]instr.Op{instr.OpFRINTN}, lowerFRound(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.RoundEven(v) }))
	register([]instr.Op{instr.OpFRINTZ}, lowerFRound(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.FPTruncToZero(v) }))

	register([]instr.Op{instr.OpFMOV}, lowerFMov)
	register([]instr.Op{instr.OpFABS}, lowerFUnary(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.Fabs(v) }))
	register([]instr.Op{instr.OpFNEG}, lowerFUnary(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.FNeg(v) }))
	register([]instr.Op{instr.OpFSQRT}, lowerFUnary(func(ec *ir.EmissionContext, v value.Value) value.Value { return ec.Sqrt(v) }))
}

// fpWidthOf returns the bit width an FP-scalar register operand declares
// (S=32, D=64, Q treated as 128 for vector-reinterpret contexts; any other
// width is treated as 32).
func fpWidthOf(r instr.Reg) int {
	switch r.Width {
	case instr.S:
		return 32
	case instr.D:
		return 64
	case instr.Q:
		return 128
	default:
		return 32
	}
}

func readFPOp(ec *ir.EmissionContext, op instr.Operand) value.Value {
	return ec.ReadVec(op.Reg.Index, ec.FPTy(fpWidthOf(op.Reg)))
}

func writeFPOp(ec *ir.EmissionContext, op instr.Operand, val value.Value) {
	ec.WriteVec(op.Reg.Index, val)
}

func lowerFBinary(f func(ec *ir.EmissionContext, x, y value.Value) value.Value) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		x := readFPOp(ec, in.Operands[1])
		y := readFPOp(ec, in.Operands[2])
		writeFPOp(ec, in.Operands[0], f(ec, x, y))
		return nil
	}
}

func lowerFUnary(f func(ec *ir.EmissionContext, v value.Value) value.Value) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		x := readFPOp(ec, in.Operands[1])
		writeFPOp(ec, in.Operands[0], f(ec, x))
		return nil
	}
}

func lowerFRound(f func(ec *ir.EmissionContext, v value.Value) value.Value) Routine {
	return lowerFUnary(f)
}

// lowerFMulAdd handles FMADD/FMSUB/FNMADD/FNMSUB, all expressed through
// llvm.fma with the appropriate operand negated: FMSUB negates the product
// (negate one factor), FNMADD negates the whole fma, FNMSUB negates both.
func lowerFMulAdd(negProduct, negResult bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		a := readFPOp(ec, in.Operands[1])
		b := readFPOp(ec, in.Operands[2])
		c := readFPOp(ec, in.Operands[3])
		if negProduct {
			a = ec.FNeg(a)
		}
		result := ec.Fma(a, b, c)
		if negResult {
			result = ec.FNeg(result)
		}
		writeFPOp(ec, in.Operands[0], result)
		return nil
	}
}

// fpCompareFlags computes the four IEEE 754 compare flags for x vs y:
// unordered (either operand NaN) forces N=0 Z=0 C=1 V=1; otherwise N/Z/C
// follow the ordered less-than/equal/greater-or-equal relations (ARM DDI
// 0487 C5.1 "Comparison operations").
func fpCompareFlags(ec *ir.EmissionContext, x, y value.Value) (n, z, c, v value.Value) {
	unordered := ec.FCmp(goir.FloatUNO, x, y)
	eq := ec.FCmp(goir.FloatOEQ, x, y)
	lt := ec.FCmp(goir.FloatOLT, x, y)

	n = ec.And(lt, ec.Not(unordered))
	z = ec.And(eq, ec.Not(unordered))
	c = ec.Or(unordered, ec.Not(lt))
	v = unordered
	return n, z, c, v
}

func lowerFCmp(ec *ir.EmissionContext, in instr.Instruction) error {
	x := readFPOp(ec, in.Operands[0])
	y := readFPOp(ec, in.Operands[1])
	n, z, c, v := fpCompareFlags(ec, x, y)
	ec.Store(n, ec.FlagReg(ir.FlagN))
	ec.Store(z, ec.FlagReg(ir.FlagZ))
	ec.Store(c, ec.FlagReg(ir.FlagC))
	ec.Store(v, ec.FlagReg(ir.FlagV))
	return nil
}

// lowerFCCmp handles FCCMP: the compare's flags apply when evalCond holds,
// otherwise the instruction's literal nzcv immediate is installed instead,
// mirroring lowerCondCompare's integer counterpart.
func lowerFCCmp(ec *ir.EmissionContext, in instr.Instruction) error {
	x := readFPOp(ec, in.Operands[0])
	y := readFPOp(ec, in.Operands[1])
	nzcv := in.Operands[2].Imm
	cond := evalCond(ec, in.Cond)
	passN, passZ, passC, passV := fpCompareFlags(ec, x, y)

	store := func(f ir.Flag, pass value.Value, bit int64) {
		literal := boolConst((nzcv>>bit)&1 != 0)
		ec.Store(ec.Select(cond, pass, literal), ec.FlagReg(f))
	}
	store(ir.FlagN, passN, 3)
	store(ir.FlagZ, passZ, 2)
	store(ir.FlagC, passC, 1)
	store(ir.FlagV, passV, 0)
	return nil
}

func lowerFCSel(ec *ir.EmissionContext, in instr.Instruction) error {
	cond := evalCond(ec, in.Cond)
	x := readFPOp(ec, in.Operands[1])
	y := readFPOp(ec, in.Operands[2])
	writeFPOp(ec, in.Operands[0], ec.Select(cond, x, y))
	return nil
}

func lowerFCvtToInt(signed bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		src := readFPOp(ec, in.Operands[1])
		width := 64
		if in.Operands[0].Reg.Width == instr.W {
			width = 32
		}
		var result value.Value
		if signed {
			result = ec.FPToSI(src, ec.IntTy(width))
		} else {
			result = ec.FPToUI(src, ec.IntTy(width))
		}
		ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
		return nil
	}
}

func lowerCvtToFP(signed bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		width := 64
		if in.Operands[1].Reg.Width == instr.W {
			width = 32
		}
		src := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
		destBits := fpWidthOf(in.Operands[0].Reg)
		var result value.Value
		if signed {
			result = ec.SIToFP(src, ec.FPTy(destBits))
		} else {
			result = ec.UIToFP(src, ec.FPTy(destBits))
		}
		writeFPOp(ec, in.Operands[0], result)
		return nil
	}
}

// lowerFCvt handles FCVT: a float-to-float precision change (widen or
// narrow), direction inferred from the declared operand widths.
func lowerFCvt(ec *ir.EmissionContext, in instr.Instruction) error {
	src := readFPOp(ec, in.Operands[1])
	srcBits := fpWidthOf(in.Operands[1].Reg)
	destBits := fpWidthOf(in.Operands[0].Reg)
	var result value.Value
	switch {
	case destBits > srcBits:
		result = ec.FPExt(src, ec.FPTy(destBits))
	case destBits < srcBits:
		result = ec.FPTrunc(src, ec.FPTy(destBits))
	default:
		result = src
	}
	writeFPOp(ec, in.Operands[0], result)
	return nil
}

// lowerFMov handles FMOV's several forms: FP register to FP register, GPR
// bit pattern to/from an FP register of the same width, and an immediate
// loaded into an FP register (the decoder already expands the 8-bit
// encoded FP immediate into Operands[1].Imm's raw bit pattern).
func lowerFMov(ec *ir.EmissionContext, in instr.Instruction) error {
	dest := in.Operands[0]
	src := in.Operands[1]

	switch src.Kind {
	case instr.OperandImmediate:
		bits := ec.IntConst(src.Imm, fpWidthOf(dest.Reg))
		writeFPOp(ec, dest, ec.BitCast(bits, ec.FPTy(fpWidthOf(dest.Reg))))
		return nil
	}

	if dest.Reg.Width == instr.Vec || dest.Reg.Width == instr.S || dest.Reg.Width == instr.D || dest.Reg.Width == instr.Q {
		if src.Reg.Width == instr.W || src.Reg.Width == instr.X {
			bits := ec.ReadGPR(src.Reg.Index, src.Reg.Width == instr.W)
			writeFPOp(ec, dest, ec.BitCast(bits, ec.FPTy(fpWidthOf(dest.Reg))))
			return nil
		}
		writeFPOp(ec, dest, readFPOp(ec, src))
		return nil
	}

	// FP register to GPR: reinterpret bits.
	fp := readFPOp(ec, src)
	width := 64
	if dest.Reg.Width == instr.W {
		width = 32
	}
	bits := ec.BitCast(fp, ec.IntTy(width))
	ec.WriteGPR(dest.Reg.Index, width == 32, bits)
	return nil
}

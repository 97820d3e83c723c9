package classic

import (
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpADD, instr.OpADDS, instr.OpSUB, instr.OpSUBS}, lowerAddSub)
	register([]instr.Op{instr.OpADC, instr.OpADCS, instr.OpSBC, instr.OpSBCS}, lowerAdcSbc)
	register([]instr.Op{instr.OpASRV, instr.OpLSLV, instr.OpLSRV, instr.OpRORV}, lowerShiftReg)
	register([]instr.Op{instr.OpMOVZ, instr.OpMOVN, instr.OpMOVK}, lowerMoveWide)
}

// operandWidth reports the destination operand's bit width (32 for W, 64
// for X).
func operandWidth(in instr.Instruction) int {
	if regWidth64(in, 0) {
		return 64
	}
	return 32
}

// readSrc materializes source operand i: a register read (honoring a
// shifted- or extended-register form) or an immediate constant.
func readSrc(ec *ir.EmissionContext, in instr.Instruction, i int, width int) value.Value {
	op := in.Operands[i]
	if op.Kind == instr.OperandImmediate {
		return ec.IntConst(op.Imm, width)
	}
	v := ec.ReadGPR(op.Reg.Index, width == 32)
	if op.Shift != instr.ShiftNone && op.ShiftAmt > 0 {
		amt := ec.IntConst(int64(op.ShiftAmt), width)
		switch op.Shift {
		case instr.ShiftLSL:
			v = ec.RawShl(v, amt)
		case instr.ShiftLSR:
			v = ec.RawLShr(v, amt)
		case instr.ShiftASR:
			v = ec.RawAShr(v, amt)
		case instr.ShiftROR:
			// ROR(x, n) = (x lsr n) | (x lsl (width-n)).
			inv := ec.IntConst(int64(width)-int64(op.ShiftAmt), width)
			v = ec.Or(ec.RawLShr(v, amt), ec.RawShl(v, inv))
		}
	}
	if op.Extend != instr.ExtendNone {
		v = applyExtend(ec, v, op.Extend, op.ExtendAmt, width)
	}
	return v
}

func applyExtend(ec *ir.EmissionContext, v value.Value, ext instr.ExtendOp, amt uint, width int) value.Value {
	srcBits := extendSourceBits(ext)
	truncated := ec.Trunc(v, ec.IntTy(srcBits))
	var widened value.Value
	if extendIsSigned(ext) {
		widened = ec.SExt(truncated, ec.IntTy(width))
	} else {
		widened = ec.ZExt(truncated, ec.IntTy(width))
	}
	if amt > 0 {
		widened = ec.RawShl(widened, ec.IntConst(int64(amt), width))
	}
	return widened
}

func extendSourceBits(ext instr.ExtendOp) int {
	switch ext {
	case instr.ExtendUXTB, instr.ExtendSXTB:
		return 8
	case instr.ExtendUXTH, instr.ExtendSXTH:
		return 16
	case instr.ExtendUXTW, instr.ExtendSXTW:
		return 32
	default:
		return 64
	}
}

func extendIsSigned(ext instr.ExtendOp) bool {
	switch ext {
	case instr.ExtendSXTB, instr.ExtendSXTH, instr.ExtendSXTW, instr.ExtendSXTX:
		return true
	default:
		return false
	}
}

// lowerAddSub handles ADD/ADDS/SUB/SUBS in all three addressing forms
// (immediate, shifted-register, extended-register): readSrc already folds
// shift/extend into the operand read.
func lowerAddSub(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 1, width)
	y := readSrc(ec, in, 2, width)

	isSub := in.Op == instr.OpSUB || in.Op == instr.OpSUBS
	setFlags := in.Op == instr.OpADDS || in.Op == instr.OpSUBS

	var result value.Value
	if isSub {
		if setFlags {
			result = lowerSubFlags(ec, x, y, width)
		} else {
			result = ec.Sub(x, y)
		}
	} else {
		if setFlags {
			result = lowerAddFlags(ec, x, y, width)
		} else {
			result = ec.Add(x, y)
		}
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

func lowerAddFlags(ec *ir.EmissionContext, x, y value.Value, width int) value.Value {
	result, c := ec.UAddOverflow(x, y)
	_, v := ec.SAddOverflow(x, y)
	updateNZ(ec, result, width)
	ec.Store(c, ec.FlagReg(ir.FlagC))
	ec.Store(v, ec.FlagReg(ir.FlagV))
	return result
}

func lowerSubFlags(ec *ir.EmissionContext, x, y value.Value, width int) value.Value {
	result, borrow := ec.USubOverflow(x, y)
	_, v := ec.SSubOverflow(x, y)
	updateNZ(ec, result, width)
	// AArch64's carry flag on subtraction is NOT borrow: C=1 means no
	// borrow occurred, the inverse of the overflow intrinsic's borrow bit.
	ec.Store(ec.Not(borrow), ec.FlagReg(ir.FlagC))
	ec.Store(v, ec.FlagReg(ir.FlagV))
	return result
}

// lowerAdcSbc handles ADC/ADCS/SBC/SBCS, which fold in the current carry
// flag as a third operand.
func lowerAdcSbc(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 1, width)
	y := readSrc(ec, in, 2, width)
	carryBit := ec.LoadFlag(ir.FlagC)
	carry := ec.ZExt(carryBit, ec.IntTy(width))

	isSbc := in.Op == instr.OpSBC || in.Op == instr.OpSBCS
	setFlags := in.Op == instr.OpADCS || in.Op == instr.OpSBCS

	var result value.Value
	if isSbc {
		notY := ec.Not(y)
		result = ec.Add(ec.Add(x, notY), carry)
	} else {
		result = ec.Add(ec.Add(x, y), carry)
	}

	if setFlags {
		updateNZ(ec, result, width)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerShiftReg handles the variable-shift-amount family ASRV/LSLV/LSRV/
// RORV, whose shift count is itself a register and so must go through
// SafeShift (LSL/LSR/ASR) or an explicit rotate-by-safe-amount for ROR.
func lowerShiftReg(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	x := readSrc(ec, in, 1, width)
	y := readSrc(ec, in, 2, width)

	var result value.Value
	switch in.Op {
	case instr.OpASRV:
		result = ec.SafeShift(x, ir.ShiftASR, y)
	case instr.OpLSLV:
		result = ec.SafeShift(x, ir.ShiftLSL, y)
	case instr.OpLSRV:
		result = ec.SafeShift(x, ir.ShiftLSR, y)
	case instr.OpRORV:
		widthConst := ec.IntConst(int64(width), width)
		mod := ec.URem(y, widthConst)
		inv := ec.Sub(widthConst, mod)
		result = ec.Or(ec.SafeShift(x, ir.ShiftLSR, mod), ec.SafeShift(x, ir.ShiftLSL, inv))
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerMoveWide handles MOVZ/MOVN/MOVK: a 16-bit immediate placed at a
// shifted position, zero-filled (MOVZ), inverted (MOVN), or keeping the
// other lanes of the destination (MOVK).
func lowerMoveWide(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	imm := in.Operands[1].Imm
	shift := int64(0)
	if len(in.Operands) > 2 {
		shift = int64(in.Operands[2].Imm)
	}

	shifted := ec.IntConst(imm<<uint(shift), width)

	var result value.Value
	switch in.Op {
	case instr.OpMOVZ:
		result = shifted
	case instr.OpMOVN:
		result = ec.Not(shifted)
	case instr.OpMOVK:
		mask := ec.IntConst(^(int64(0xFFFF) << uint(shift)), width)
		current := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
		result = ec.Or(ec.And(current, mask), shifted)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

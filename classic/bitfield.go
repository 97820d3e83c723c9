package classic

import (
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpSBFM, instr.OpUBFM, instr.OpBFM}, lowerBitfieldMove)
	register([]instr.Op{instr.OpEXTR}, lowerExtr)
	register([]instr.Op{instr.OpRBIT, instr.OpREV, instr.OpREV16, instr.OpREV32}, lowerReverse)
	register([]instr.Op{instr.OpCLZ}, lowerClz)
}

// lowerBitfieldMove handles SBFM/UBFM/BFM: extract bits [imms:immr] of the
// source (rotated by immr), sign/zero-extend (or for BFM, merge into the
// destination's untouched bits).
func lowerBitfieldMove(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	src := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	immr := in.Operands[2].Imm
	imms := in.Operands[3].Imm

	rotated := ec.SafeShift(src, ir.ShiftLSR, ec.IntConst(immr, width))
	if immr > 0 {
		rotated = ec.Or(rotated, ec.SafeShift(src, ir.ShiftLSL, ec.IntConst(int64(width)-immr, width)))
	}

	fieldWidth := imms - immr + 1
	if fieldWidth <= 0 {
		fieldWidth += int64(width)
	}
	mask := ec.IntConst(int64(1)<<uint(fieldWidth)-1, width)
	field := ec.And(rotated, mask)

	var result value.Value
	switch in.Op {
	case instr.OpUBFM:
		result = field
	case instr.OpSBFM:
		shiftAmt := ec.IntConst(int64(width)-fieldWidth, width)
		result = ec.RawAShr(ec.RawShl(field, shiftAmt), shiftAmt)
	case instr.OpBFM:
		current := ec.ReadGPR(in.Operands[0].Reg.Index, width == 32)
		keepMask := ec.Not(mask)
		result = ec.Or(ec.And(current, keepMask), field)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// lowerExtr handles EXTR: a concatenation of two registers (hi:lo) shifted
// right by an immediate, truncated back to the operand width.
func lowerExtr(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	hi := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	lo := ec.ReadGPR(in.Operands[2].Reg.Index, width == 32)
	lsb := in.Operands[3].Imm

	doubleWidth := width * 2
	hiExt := ec.ZExt(hi, ec.IntTy(doubleWidth))
	loExt := ec.ZExt(lo, ec.IntTy(doubleWidth))
	concat := ec.Or(ec.RawShl(hiExt, ec.IntConst(int64(width), doubleWidth)), loExt)
	shifted := ec.RawLShr(concat, ec.IntConst(lsb, doubleWidth))
	result := ec.Trunc(shifted, ec.IntTy(width))

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

func lowerReverse(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	src := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)

	var result value.Value
	switch in.Op {
	case instr.OpRBIT:
		result = ec.Bitreverse(src)
	case instr.OpREV:
		result = ec.Bswap(src)
	case instr.OpREV16:
		result = reverseInLanes(ec, src, width, 16)
	case instr.OpREV32:
		result = reverseInLanes(ec, src, width, 32)
	}

	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

// reverseInLanes byte-reverses each laneBits-wide chunk of src independently
// by splitting it into i(laneBits) pieces, byte-swapping each, and
// reassembling — REV16/REV32's "reverse within halfwords/words" behavior.
func reverseInLanes(ec *ir.EmissionContext, src value.Value, width, laneBits int) value.Value {
	lanes := width / laneBits
	vecTy := ec.VecTy(ec.IntTy(laneBits), lanes)
	asVec := ec.BitCast(src, vecTy)
	result := ec.UndefVec(lanes, laneBits)
	for i := 0; i < lanes; i++ {
		idx := ec.IntConst(int64(i), 32)
		lane := ec.ExtractElement(asVec, idx)
		swapped := ec.Bswap(lane)
		result = ec.InsertElement(result, swapped, idx)
	}
	return ec.BitCast(result, ec.IntTy(width))
}

func lowerClz(ec *ir.EmissionContext, in instr.Instruction) error {
	width := operandWidth(in)
	src := ec.ReadGPR(in.Operands[1].Reg.Index, width == 32)
	result := ec.Ctlz(src)
	ec.WriteGPR(in.Operands[0].Reg.Index, width == 32, result)
	return nil
}

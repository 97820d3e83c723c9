package classic

import (
	"github.com/llir/llvm/ir/value"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func init() {
	register([]instr.Op{instr.OpZIP1}, lowerZip(false))
	register([]instr.Op{instr.OpZIP2}, lowerZip(true))
	register([]instr.Op{instr.OpUZP1}, lowerUzp(false))
	register([]instr.Op{instr.OpUZP2}, lowerUzp(true))
	register([]instr.Op{instr.OpTRN1}, lowerTrn(false))
	register([]instr.Op{instr.OpTRN2}, lowerTrn(true))
	register([]instr.Op{instr.OpEXT}, lowerExt)
	register([]instr.Op{instr.OpREV64}, lowerRev64)
	register([]instr.Op{instr.OpDUP}, lowerDup)
	register([]instr.Op{instr.OpINS}, lowerIns)
	register([]instr.Op{instr.OpSMOV}, lowerMovLane(true))
	register([]instr.Op{instr.OpUMOV}, lowerMovLane(false))
	register([]instr.Op{instr.OpMOVI}, lowerMoveImm(false))
	register([]instr.Op{instr.OpMVNI}, lowerMoveImm(true))
}

// lowerZip handles ZIP1/ZIP2: interleave lanes from the low (ZIP1) or high
// (ZIP2) half of each source vector.
func lowerZip(high bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		x := readVecOp(ec, in.Operands[1])
		y := readVecOp(ec, in.Operands[2])
		base := 0
		if high {
			base = lanes / 2
		}
		acc := ec.UndefVec(lanes, elemBits)
		for l := 0; l < lanes/2; l++ {
			xe := ec.ExtractElement(x, ec.IntConst(int64(base+l), 32))
			ye := ec.ExtractElement(y, ec.IntConst(int64(base+l), 32))
			acc = ec.InsertElement(acc, xe, ec.IntConst(int64(l*2), 32))
			acc = ec.InsertElement(acc, ye, ec.IntConst(int64(l*2+1), 32))
		}
		writeVecOp(ec, in.Operands[0], acc)
		return nil
	}
}

// lowerUzp handles UZP1/UZP2: gather every even (UZP1) or odd (UZP2) lane
// from each source vector, x's half first then y's.
func lowerUzp(odd bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		x := readVecOp(ec, in.Operands[1])
		y := readVecOp(ec, in.Operands[2])
		start := 0
		if odd {
			start = 1
		}
		acc := ec.UndefVec(lanes, elemBits)
		half := lanes / 2
		for l := 0; l < half; l++ {
			xe := ec.ExtractElement(x, ec.IntConst(int64(start+l*2), 32))
			acc = ec.InsertElement(acc, xe, ec.IntConst(int64(l), 32))
		}
		for l := 0; l < half; l++ {
			ye := ec.ExtractElement(y, ec.IntConst(int64(start+l*2), 32))
			acc = ec.InsertElement(acc, ye, ec.IntConst(int64(half+l), 32))
		}
		writeVecOp(ec, in.Operands[0], acc)
		return nil
	}
}

// lowerTrn handles TRN1/TRN2: transpose alternating lanes from the two
// sources, even (TRN1) or odd (TRN2) positions.
func lowerTrn(odd bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		x := readVecOp(ec, in.Operands[1])
		y := readVecOp(ec, in.Operands[2])
		off := int64(0)
		if odd {
			off = 1
		}
		acc := ec.UndefVec(lanes, elemBits)
		for l := 0; l < lanes/2; l++ {
			xe := ec.ExtractElement(x, ec.IntConst(int64(l*2)+off, 32))
			ye := ec.ExtractElement(y, ec.IntConst(int64(l*2)+off, 32))
			acc = ec.InsertElement(acc, xe, ec.IntConst(int64(l*2), 32))
			acc = ec.InsertElement(acc, ye, ec.IntConst(int64(l*2+1), 32))
		}
		writeVecOp(ec, in.Operands[0], acc)
		return nil
	}
}

// lowerExt handles EXT: extract lanes out of the lane-granular concatenation
// of the two sources starting at in.Operands[3].Imm (the decoder expresses
// EXT's byte index as an element index at this vector's own lane width, a
// documented simplification of the architecture's always-byte-granular
// index).
func lowerExt(ec *ir.EmissionContext, in instr.Instruction) error {
	lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
	x := readVecOp(ec, in.Operands[1])
	y := readVecOp(ec, in.Operands[2])
	index := int(in.Operands[3].Imm)
	acc := ec.UndefVec(lanes, elemBits)
	for l := 0; l < lanes; l++ {
		src, pos := x, index+l
		if pos >= lanes {
			src, pos = y, pos-lanes
		}
		e := ec.ExtractElement(src, ec.IntConst(int64(pos), 32))
		acc = ec.InsertElement(acc, e, ec.IntConst(int64(l), 32))
	}
	writeVecOp(ec, in.Operands[0], acc)
	return nil
}

// lowerRev64 reverses lane order within each 64-bit group.
func lowerRev64(ec *ir.EmissionContext, in instr.Instruction) error {
	lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
	v := readVecOp(ec, in.Operands[1])
	groupLanes := 64 / elemBits
	acc := ec.UndefVec(lanes, elemBits)
	for g := 0; g*groupLanes < lanes; g++ {
		for i := 0; i < groupLanes; i++ {
			src := g*groupLanes + i
			dst := g*groupLanes + (groupLanes - 1 - i)
			e := ec.ExtractElement(v, ec.IntConst(int64(src), 32))
			acc = ec.InsertElement(acc, e, ec.IntConst(int64(dst), 32))
		}
	}
	writeVecOp(ec, in.Operands[0], acc)
	return nil
}

// lowerDup handles both DUP forms: broadcasting one lane of a vector source
// (in.Operands[1].Reg.Width == instr.Vec) or a GPR scalar, to every lane of
// the destination.
func lowerDup(ec *ir.EmissionContext, in instr.Instruction) error {
	lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
	if in.Operands[1].Reg.Width == instr.Vec {
		src := readVecOp(ec, in.Operands[1])
		idx := int(in.Operands[2].Imm)
		writeVecOp(ec, in.Operands[0], splatLane(ec, src, idx, lanes, elemBits))
		return nil
	}
	scalar := ec.ReadGPR(in.Operands[1].Reg.Index, in.Operands[1].Reg.Width != instr.X)
	narrowed := ec.Trunc(scalar, ec.IntTy(elemBits))
	acc := ec.UndefVec(lanes, elemBits)
	for l := 0; l < lanes; l++ {
		acc = ec.InsertElement(acc, narrowed, ec.IntConst(int64(l), 32))
	}
	writeVecOp(ec, in.Operands[0], acc)
	return nil
}

// lowerIns handles INS: writes in.Operands[2] (a GPR scalar, or one lane of
// a vector source when in.Operands[2].Reg.Width == instr.Vec) into lane
// in.Operands[1].Imm of the destination, leaving every other lane untouched.
func lowerIns(ec *ir.EmissionContext, in instr.Instruction) error {
	elemBits := in.Operands[0].Reg.ElemBits
	dest := readVecOp(ec, in.Operands[0])
	destIdx := in.Operands[1].Imm

	var elem value.Value
	if in.Operands[2].Reg.Width == instr.Vec {
		src := readVecOp(ec, in.Operands[2])
		elem = ec.ExtractElement(src, ec.IntConst(in.Operands[3].Imm, 32))
	} else {
		scalar := ec.ReadGPR(in.Operands[2].Reg.Index, in.Operands[2].Reg.Width != instr.X)
		elem = ec.Trunc(scalar, ec.IntTy(elemBits))
	}
	writeVecOp(ec, in.Operands[0], ec.InsertElement(dest, elem, ec.IntConst(destIdx, 32)))
	return nil
}

// lowerMovLane handles SMOV/UMOV: one vector lane moved into a GPR, sign-
// (SMOV) or zero- (UMOV) extended to the destination register's width.
func lowerMovLane(signed bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		src := readVecOp(ec, in.Operands[1])
		idx := in.Operands[2].Imm
		elem := ec.ExtractElement(src, ec.IntConst(idx, 32))

		destWidth := 64
		if in.Operands[0].Reg.Width == instr.W {
			destWidth = 32
		}
		var result value.Value
		if signed {
			result = ec.SExt(elem, ec.IntTy(destWidth))
		} else {
			result = ec.ZExt(elem, ec.IntTy(destWidth))
		}
		ec.WriteGPR(in.Operands[0].Reg.Index, destWidth == 32, result)
		return nil
	}
}

// lowerMoveImm handles MOVI/MVNI: broadcast an immediate (optionally
// shifted left by Operands[1].ShiftAmt, the MSL/LSL encoded forms) to every
// lane, complemented for MVNI.
func lowerMoveImm(invert bool) Routine {
	return func(ec *ir.EmissionContext, in instr.Instruction) error {
		lanes, elemBits := in.Operands[0].Reg.Lanes, in.Operands[0].Reg.ElemBits
		imm := in.Operands[1].Imm
		if in.Operands[1].Shift == instr.ShiftLSL || in.Operands[1].Shift == instr.ShiftNone {
			imm <<= int64(in.Operands[1].ShiftAmt)
		}
		if invert {
			imm = ^imm
		}
		writeVecOp(ec, in.Operands[0], splatConst(ec, imm, lanes, elemBits))
		return nil
	}
}

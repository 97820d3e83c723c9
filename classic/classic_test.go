package classic

import (
	"strings"
	"testing"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func reg(w instr.Width, idx int) instr.Operand {
	return instr.Operand{Kind: instr.OperandRegister, Reg: instr.Reg{Width: w, Index: idx}}
}

func imm(v int64) instr.Operand {
	return instr.Operand{Kind: instr.OperandImmediate, Imm: v}
}

func TestSupported(t *testing.T) {
	if !Supported(instr.OpADD) {
		t.Error("OpADD should be supported")
	}
	if Supported(instr.Op(-1)) {
		t.Error("an unregistered opcode should not be supported")
	}
}

func TestLower_UnsupportedOpcodeReturnsErrUnsupportedOpcode(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	err := Lower(ec, instr.Instruction{Op: instr.Op(-1), Mnemonic: "XXX"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var uerr *ErrUnsupportedOpcode
	if !errorsAs(err, &uerr) {
		t.Fatalf("err = %v, want *ErrUnsupportedOpcode", err)
	}
}

// errorsAs avoids importing "errors" just for one As call in a package that
// otherwise has no error-wrapping to unwrap through.
func errorsAs(err error, target **ErrUnsupportedOpcode) bool {
	e, ok := err.(*ErrUnsupportedOpcode)
	if ok {
		*target = e
	}
	return ok
}

func TestLowerAddSub_WritesDestinationRegister(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{
		Op: instr.OpADD, Mnemonic: "ADD",
		Operands: []instr.Operand{reg(instr.X, 2), reg(instr.X, 0), reg(instr.X, 1)},
	}
	if err := Lower(ec, in); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	text := ec.Func.String()
	if !strings.Contains(text, "add") {
		t.Errorf("expected an add instruction in IR, got:\n%s", text)
	}
}

func TestLowerAddSub_SetFlagsUpdatesNZCV(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{
		Op: instr.OpADDS, Mnemonic: "ADDS", SetFlags: true,
		Operands: []instr.Operand{reg(instr.X, 0), reg(instr.X, 1), reg(instr.X, 2)},
	}
	if err := Lower(ec, in); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	text := ec.Func.String()
	for _, want := range []string{"uadd.with.overflow", "sadd.with.overflow"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in IR, got:\n%s", want, text)
		}
	}
}

func TestLowerMoveWide_MOVZWritesImmediate(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{
		Op: instr.OpMOVZ, Mnemonic: "MOVZ",
		Operands: []instr.Operand{reg(instr.X, 0), imm(42)},
	}
	if err := Lower(ec, in); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !strings.Contains(ec.Func.String(), "42") {
		t.Errorf("expected immediate 42 in IR, got:\n%s", ec.Func.String())
	}
}

func TestLowerDirectBranch_BranchesToRegisteredTarget(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	target := ec.NewBlock("target")
	ec.RegisterBlockAddr(0x2000, target)

	in := instr.Instruction{
		Op: instr.OpB, Mnemonic: "B", Address: 0x1000,
		Operands: []instr.Operand{imm(0x2000)},
	}
	if err := Lower(ec, in); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !ec.Terminated() {
		t.Fatal("expected the current block to be terminated by the branch")
	}
}

func TestLowerDirectBranch_UnresolvedTargetTrapsInsteadOfPanicking(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{
		Op: instr.OpB, Mnemonic: "B", Address: 0x1000,
		Operands: []instr.Operand{imm(0xdeadbeef)},
	}
	if err := Lower(ec, in); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !strings.Contains(ec.Func.String(), "unreachable") {
		t.Errorf("expected an unreachable trap block for the unresolved target, got:\n%s", ec.Func.String())
	}
}

func TestLowerRet(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	if err := Lower(ec, instr.Instruction{Op: instr.OpRET, Mnemonic: "RET"}); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !ec.Terminated() {
		t.Fatal("RET should terminate its block")
	}
}

func TestLowerNop_NoInstructionsEmitted(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	if err := Lower(ec, instr.Instruction{Op: instr.OpPRFM, Mnemonic: "PRFM"}); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(ec.Cursor().Insts) != 0 {
		t.Errorf("expected PRFM to emit no instructions, got %d", len(ec.Cursor().Insts))
	}
}

func TestLowerBrk_TrapsAndTerminates(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	if err := Lower(ec, instr.Instruction{Op: instr.OpBRK, Mnemonic: "BRK"}); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if !ec.Terminated() {
		t.Fatal("BRK should terminate its block with a trap")
	}
}

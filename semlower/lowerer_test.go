package semlower

import (
	"strings"
	"testing"

	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/ir"
)

func TestLower_SimpleRegisterAssignment(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{Op: instr.OpADD, Mnemonic: "ADD"}

	entry, exit, err := Lower(ec, in, "_R[2] = add_bits<64>(_R[0], _R[1]);")
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if entry == nil || exit == nil {
		t.Fatal("expected non-nil entry/exit blocks")
	}

	ec.SetCursor(exit)
	ec.Ret()

	text := ec.Func.String()
	if !strings.Contains(text, "add") {
		t.Errorf("expected an add in the lowered IR, got:\n%s", text)
	}
}

func TestLower_VarDeclAndConstDecl(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{Op: instr.OpADD, Mnemonic: "ADD"}

	text := `
var acc : bv64 = _R[0];
const bump : bv64 = add_bits<64>(acc, _R[1]);
_R[2] = bump;
`
	entry, exit, err := Lower(ec, in, text)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if entry == nil || exit == nil {
		t.Fatal("expected non-nil entry/exit blocks")
	}
}

func TestLower_IfStatement(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{Op: instr.OpCSEL, Mnemonic: "CSEL"}

	text := `
if (eq_bits<64>(_R[0], _R[1])) {
	_R[2] = _R[0];
} else {
	_R[2] = _R[1];
}
`
	_, _, err := Lower(ec, in, text)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
}

func TestLower_MalformedSemanticsReturnsError(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{Op: instr.OpADD, Mnemonic: "ADD"}

	_, _, err := Lower(ec, in, "_R[2] = ;")
	if err == nil {
		t.Fatal("expected an error for malformed semantics text")
	}
}

func TestLower_UnknownApplicationReturnsError(t *testing.T) {
	ec := ir.NewEmissionContext("t")
	in := instr.Instruction{Op: instr.OpADD, Mnemonic: "ADD"}

	_, _, err := Lower(ec, in, "_R[2] = not_a_real_function<64>(_R[0], _R[1]);")
	if err == nil {
		t.Fatal("expected an error for an unregistered semantic-tree function")
	}
}

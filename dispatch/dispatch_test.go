package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aslpgo/aslpgo/config"
	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/semclient"
)

func straightLineProgram() []instr.Instruction {
	x0 := instr.Reg{Width: instr.X, Index: 0}
	x1 := instr.Reg{Width: instr.X, Index: 1}
	x2 := instr.Reg{Width: instr.X, Index: 2}
	return []instr.Instruction{
		{Op: instr.OpMOVZ, Mnemonic: "MOVZ", Address: 0x1000, CanEncode: true, Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: x0}, {Kind: instr.OperandImmediate, Imm: 5},
		}},
		{Op: instr.OpMOVZ, Mnemonic: "MOVZ", Address: 0x1004, CanEncode: true, Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: x1}, {Kind: instr.OperandImmediate, Imm: 7},
		}},
		{Op: instr.OpADD, Mnemonic: "ADD", Address: 0x1008, CanEncode: true, Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: x2},
			{Kind: instr.OperandRegister, Reg: x0},
			{Kind: instr.OperandRegister, Reg: x1},
		}},
		{Op: instr.OpRET, Mnemonic: "RET", Address: 0x100c},
	}
}

func TestDispatcher_LiftStraightLineFallsBackToClassic(t *testing.T) {
	cfg := config.Default()
	d := New(cfg, semclient.NewStaticClient())

	fn, report, err := d.Lift(context.Background(), "t", straightLineProgram())
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}

	for _, mnem := range []string{"MOVZ", "ADD"} {
		want := countMnemonic(straightLineProgram(), mnem)
		_, classic, missing, _ := report.Counts(mnem)
		if classic != 0 || missing != want {
			t.Errorf("%s: classic=%d missing=%d, want classic=0 missing=%d", mnem, classic, missing, want)
		}
	}

	ir := fn.String()
	if !strings.Contains(ir, "asm.classic") {
		t.Errorf("expected asm.classic metadata in lifted IR, got:\n%s", ir)
	}
}

func countMnemonic(instrs []instr.Instruction, mnem string) int {
	n := 0
	for _, in := range instrs {
		if in.Mnemonic == mnem {
			n++
		}
	}
	return n
}

func TestDispatcher_StructuredPathUsedWhenFetchSucceeds(t *testing.T) {
	cfg := config.Default()
	client := semclient.NewStaticClient().Add(0xaabbccdd, "ADD", "_R[2] = add_bits<64>(_R[0], _R[1]);")

	d := New(cfg, client)
	in := instr.Instruction{
		Op: instr.OpADD, Mnemonic: "ADD", Address: 0x2000, Encoding: 0xaabbccdd, CanEncode: true,
		Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 2}},
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 0}},
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 1}},
		},
	}

	_, report, err := d.Lift(context.Background(), "t", []instr.Instruction{in})
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	structured, classic, _, _ := report.Counts("ADD")
	if structured != 1 || classic != 0 {
		t.Errorf("Counts(ADD) = (structured=%d, classic=%d), want (1, 0)", structured, classic)
	}
}

func TestDispatcher_DisabledForcesClassic(t *testing.T) {
	cfg := config.Default()
	cfg.Enable = false
	client := semclient.NewStaticClient().Add(0xaabbccdd, "ADD", "_R[2] = add_bits<64>(_R[0], _R[1]);")

	d := New(cfg, client)
	in := instr.Instruction{
		Op: instr.OpADD, Mnemonic: "ADD", Address: 0x2000, Encoding: 0xaabbccdd,
		Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 2}},
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 0}},
			{Kind: instr.OperandRegister, Reg: instr.Reg{Width: instr.X, Index: 1}},
		},
	}

	_, report, err := d.Lift(context.Background(), "t", []instr.Instruction{in})
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	structured, classic, _, _ := report.Counts("ADD")
	if structured != 0 || classic != 1 {
		t.Errorf("Counts(ADD) = (structured=%d, classic=%d), want (0, 1)", structured, classic)
	}
}

func TestDispatcher_BannedOpcodeSkipsStructured(t *testing.T) {
	cfg := config.Default()
	client := semclient.NewStaticClient().Add(0x1, "BRK", "Halt();")

	d := New(cfg, client)
	in := instr.Instruction{Op: instr.OpBRK, Mnemonic: "BRK", Address: 0x3000, Encoding: 0x1}

	_, report, err := d.Lift(context.Background(), "t", []instr.Instruction{in})
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	_, _, _, banned := report.Counts("BRK")
	if banned != 1 {
		t.Errorf("Counts(BRK).banned = %d, want 1", banned)
	}
}

func TestDispatcher_FailIfMissingReturnsUnknownEncoding(t *testing.T) {
	cfg := config.Default()
	cfg.FailIfMissing = true

	d := New(cfg, semclient.NewStaticClient())
	in := instr.Instruction{Op: instr.OpADD, Mnemonic: "ADD", Address: 0x4000, Encoding: 0xdeadbeef, CanEncode: true}

	_, _, err := d.Lift(context.Background(), "t", []instr.Instruction{in})
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if derr.Kind != KindUnknownEncoding {
		t.Errorf("Kind = %v, want KindUnknownEncoding", derr.Kind)
	}
}

func TestDispatcher_UnsupportedOpcodeIsFatal(t *testing.T) {
	cfg := config.Default()
	d := New(cfg, semclient.NewStaticClient())
	in := instr.Instruction{Op: instr.Op(-1), Mnemonic: "XXX", Address: 0x5000}

	_, _, err := d.Lift(context.Background(), "t", []instr.Instruction{in})
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if derr.Kind != KindUnsupportedOpcode {
		t.Errorf("Kind = %v, want KindUnsupportedOpcode", derr.Kind)
	}
}

func TestDefaultBanned_IncludesBRK(t *testing.T) {
	if !DefaultBanned()[instr.OpBRK] {
		t.Error("DefaultBanned() should include OpBRK")
	}
}

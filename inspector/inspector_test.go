package inspector

import (
	"context"
	"strings"
	"testing"

	"github.com/aslpgo/aslpgo/config"
	"github.com/aslpgo/aslpgo/dispatch"
	"github.com/aslpgo/aslpgo/instr"
	"github.com/aslpgo/aslpgo/semclient"
)

func liftDemo(t *testing.T) (*Inspector, error) {
	t.Helper()
	cfg := config.Default()
	d := dispatch.New(cfg, semclient.NewStaticClient())

	x0 := instr.Reg{Width: instr.X, Index: 0}
	program := []instr.Instruction{
		{Op: instr.OpMOVZ, Mnemonic: "MOVZ", Address: 0x1000, Operands: []instr.Operand{
			{Kind: instr.OperandRegister, Reg: x0}, {Kind: instr.OperandImmediate, Imm: 3},
		}},
		{Op: instr.OpRET, Mnemonic: "RET", Address: 0x1004},
	}

	fn, report, err := d.Lift(context.Background(), "t", program)
	if err != nil {
		return nil, err
	}
	return New(fn, report), nil
}

func TestInspector_PopulatesBlockListAndShowsClassicTag(t *testing.T) {
	insp, err := liftDemo(t)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}

	if insp.BlockList.GetItemCount() < 2 {
		t.Fatal("expected the entry block and at least one instruction block in the list")
	}

	// Blocks[0] is the entry block holding the register cells; Blocks[1] is
	// the MOVZ at 0x1000, whose terminator carries the asm.classic tag.
	insp.showBlock(insp.Func.Blocks[1])
	text := insp.IRView.GetText(true)
	if !strings.Contains(text, "asm.classic") {
		t.Errorf("expected asm.classic tag in the MOVZ block's rendering, got:\n%s", text)
	}
}

func TestInspector_CoverageViewListsMnemonics(t *testing.T) {
	insp, err := liftDemo(t)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}

	text := insp.CoverageView.GetText(true)
	if !strings.Contains(text, "MOVZ") || !strings.Contains(text, "RET") {
		t.Errorf("expected coverage view to list MOVZ and RET, got:\n%s", text)
	}
}

func TestInspector_NilReportIsHandled(t *testing.T) {
	insp, err := liftDemo(t)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}
	insp.Report = nil
	insp.updateCoverageView()

	text := insp.CoverageView.GetText(true)
	if !strings.Contains(text, "no coverage report") {
		t.Errorf("expected placeholder text for nil report, got:\n%s", text)
	}
}

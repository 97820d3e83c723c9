package instr

// The Op catalog below enumerates every instruction class the ClassicLowerer
// must handle per spec §4.4. Families are grouped and commented the way the
// teacher's vm package groups its instruction constants (vm/data_processing.go,
// vm/multiply.go); most of these opcodes share a single classic routine
// parameterized by Op, rather than one routine apiece — see package classic.
const (
	OpUnknown Op = iota

	// Branches and calls.
	OpB
	OpBL
	OpBR
	OpBLR
	OpRET
	OpBcc
	OpCBZ
	OpCBNZ
	OpTBZ
	OpTBNZ

	// System register move.
	OpMRS
	OpMSR

	// Address generation (structured path only, spec §4.3.2; no classic
	// routine is registered for these — GOT-indirection emulation requires
	// the semantic tree's local-cell allocation, not a fixed register
	// write).
	OpADR
	OpADRP

	// Add/sub family (immediate, shifted-register, extended-register; the S
	// forms are separate Ops, OpADDS and OpSUBS).
	OpADD
	OpADDS
	OpSUB
	OpSUBS
	OpADC
	OpADCS
	OpSBC
	OpSBCS

	// Variable shifts.
	OpASRV
	OpLSLV
	OpLSRV
	OpRORV

	// Logical family.
	OpAND
	OpANDS
	OpORR
	OpORN
	OpEOR
	OpEON
	OpBIC
	OpBICS

	// Shift and bitfield.
	OpSBFM
	OpUBFM
	OpBFM
	OpEXTR

	// Conditional select family.
	OpCSEL
	OpCSINC
	OpCSINV
	OpCSNEG

	// Conditional compare.
	OpCCMP
	OpCCMN

	// Move-wide family.
	OpMOVZ
	OpMOVN
	OpMOVK

	// Multiply-add family.
	OpMADD
	OpMSUB
	OpSMADDL
	OpUMADDL
	OpSMSUBL
	OpUMSUBL
	OpSMULH
	OpUMULH

	// Divide.
	OpSDIV
	OpUDIV

	// Byte/bit reverse, count leading zeros.
	OpRBIT
	OpREV
	OpREV16
	OpREV32
	OpCLZ

	// Scalar loads/stores: all addressing modes.
	OpLDR
	OpLDRB
	OpLDRH
	OpLDRSB
	OpLDRSH
	OpLDRSW
	OpSTR
	OpSTRB
	OpSTRH
	OpLDP
	OpSTP
	OpLDUR
	OpSTUR

	// Vector loads/stores.
	OpLD1
	OpLD2
	OpLD3
	OpLD4
	OpLD1R
	OpST1
	OpST2
	OpST3
	OpST4

	// SIMD arithmetic/compare.
	OpVADD
	OpVSUB
	OpVMUL
	OpVMLA
	OpVMLS
	OpVMLAIndexed
	OpVMLSIndexed
	OpVMULIndexed
	OpVMULL
	OpVMLAL
	OpVMLSL
	OpVMULLIndexed
	OpVMLALIndexed
	OpVMLSLIndexed
	OpVCMEQ
	OpVCMGT
	OpVCMGE
	OpVCMHI
	OpVCMHS
	OpVMIN
	OpVMAX
	OpVMINP
	OpVMAXP
	OpVADDV
	OpVMINV
	OpVMAXV

	// Widening / narrowing / halving.
	OpUADDL
	OpSADDL
	OpUADDW
	OpSADDW
	OpUSUBL
	OpSSUBL
	OpUSUBW
	OpSSUBW
	OpSHADD
	OpUHADD
	OpSHSUB
	OpUHSUB
	OpSRHADD
	OpURHADD
	OpUABD
	OpSABD
	OpUABA
	OpSABA
	OpUABDL
	OpSABDL
	OpUABAL
	OpSABAL
	OpSHRN
	OpRSHRN
	OpSHLL
	OpSRA
	OpUSRA
	OpSLI
	OpSRI

	// Saturating / narrowing.
	OpUQADD
	OpSQADD
	OpUQSUB
	OpSQSUB
	OpUQXTN
	OpSQXTN
	OpXTN

	// Pairwise add / unary vector ops.
	OpADDP
	OpVABS
	OpVNEG
	OpVNOT
	OpVCNT

	// Shuffle/permute/move.
	OpZIP1
	OpZIP2
	OpUZP1
	OpUZP2
	OpTRN1
	OpTRN2
	OpEXT
	OpREV64
	OpDUP
	OpINS
	OpSMOV
	OpUMOV
	OpMOVI
	OpMVNI
	OpTBL

	// Floating point.
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFMADD
	OpFMSUB
	OpFNMADD
	OpFNMSUB
	OpFCMP
	OpFCCMP
	OpFCSEL
	OpFCVTZS
	OpFCVTZU
	OpFCVT
	OpFRINTP
	OpFRINTM
	OpFRINTA
	OpFRINTN
	OpFRINTZ
	OpUCVTF
	OpSCVTF
	OpFMOV
	OpFABS
	OpFNEG
	OpFSQRT

	// Pseudo-nops (lowered to empty) and trap.
	OpPRFM
	OpPACIASP
	OpPACIBSP
	OpAUTIASP
	OpAUTIBSP
	OpHINT
	OpBRK

	// opCount is not a real opcode; it bounds generated tables.
	opCount
)

// bannedPseudoNops holds the pseudo-nop catalog plus BRK, the same opcodes
// dispatch.DefaultBanned lists. The dispatcher keeps its own copy and does
// not read this map; here it only backs IsPseudoNop.
var bannedPseudoNops = map[Op]bool{
	OpPRFM:     true,
	OpPACIASP:  true,
	OpPACIBSP:  true,
	OpAUTIASP:  true,
	OpAUTIBSP:  true,
	OpHINT:     true,
	OpBRK:      true,
}

// IsPseudoNop reports whether op is in the "lower to nothing" pseudo-nop
// catalog (PRFM, PACI*SP/AUTI*SP, HINT). BRK is excluded: it lowers to a
// trap, not to nothing.
func IsPseudoNop(op Op) bool {
	return bannedPseudoNops[op] && op != OpBRK
}

// mnemonics names every Op for diagnostics and metadata tagging.
var mnemonics = map[Op]string{
	OpB: "B", OpBL: "BL", OpBR: "BR", OpBLR: "BLR", OpRET: "RET", OpBcc: "Bcc",
	OpCBZ: "CBZ", OpCBNZ: "CBNZ", OpTBZ: "TBZ", OpTBNZ: "TBNZ",
	OpMRS: "MRS", OpMSR: "MSR", OpADR: "ADR", OpADRP: "ADRP",
	OpADD: "ADD", OpADDS: "ADDS", OpSUB: "SUB", OpSUBS: "SUBS",
	OpADC: "ADC", OpADCS: "ADCS", OpSBC: "SBC", OpSBCS: "SBCS",
	OpASRV: "ASRV", OpLSLV: "LSLV", OpLSRV: "LSRV", OpRORV: "RORV",
	OpAND: "AND", OpANDS: "ANDS", OpORR: "ORR", OpORN: "ORN",
	OpEOR: "EOR", OpEON: "EON", OpBIC: "BIC", OpBICS: "BICS",
	OpSBFM: "SBFM", OpUBFM: "UBFM", OpBFM: "BFM", OpEXTR: "EXTR",
	OpCSEL: "CSEL", OpCSINC: "CSINC", OpCSINV: "CSINV", OpCSNEG: "CSNEG",
	OpCCMP: "CCMP", OpCCMN: "CCMN",
	OpMOVZ: "MOVZ", OpMOVN: "MOVN", OpMOVK: "MOVK",
	OpMADD: "MADD", OpMSUB: "MSUB", OpSMADDL: "SMADDL", OpUMADDL: "UMADDL",
	OpSMSUBL: "SMSUBL", OpUMSUBL: "UMSUBL", OpSMULH: "SMULH", OpUMULH: "UMULH",
	OpSDIV: "SDIV", OpUDIV: "UDIV",
	OpRBIT: "RBIT", OpREV: "REV", OpREV16: "REV16", OpREV32: "REV32", OpCLZ: "CLZ",
	OpLDR: "LDR", OpLDRB: "LDRB", OpLDRH: "LDRH", OpLDRSB: "LDRSB", OpLDRSH: "LDRSH",
	OpLDRSW: "LDRSW", OpSTR: "STR", OpSTRB: "STRB", OpSTRH: "STRH",
	OpLDP: "LDP", OpSTP: "STP", OpLDUR: "LDUR", OpSTUR: "STUR",
	OpLD1: "LD1", OpLD2: "LD2", OpLD3: "LD3", OpLD4: "LD4", OpLD1R: "LD1R",
	OpST1: "ST1", OpST2: "ST2", OpST3: "ST3", OpST4: "ST4",
	OpVADD: "ADD.v", OpVSUB: "SUB.v", OpVMUL: "MUL.v",
	OpVMLA: "MLA.v", OpVMLS: "MLS.v",
	OpVMLAIndexed: "MLA.indexed", OpVMLSIndexed: "MLS.indexed", OpVMULIndexed: "MUL.indexed",
	OpVMULL: "MULL", OpVMLAL: "MLAL", OpVMLSL: "MLSL",
	OpVMULLIndexed: "MULL.indexed", OpVMLALIndexed: "MLAL.indexed", OpVMLSLIndexed: "MLSL.indexed",
	OpVCMEQ: "CMEQ", OpVCMGT: "CMGT", OpVCMGE: "CMGE", OpVCMHI: "CMHI", OpVCMHS: "CMHS",
	OpVMIN: "MIN.v", OpVMAX: "MAX.v", OpVMINP: "MINP", OpVMAXP: "MAXP",
	OpVADDV: "ADDV", OpVMINV: "MINV", OpVMAXV: "MAXV",
	OpUADDL: "UADDL", OpSADDL: "SADDL", OpUADDW: "UADDW", OpSADDW: "SADDW",
	OpUSUBL: "USUBL", OpSSUBL: "SSUBL", OpUSUBW: "USUBW", OpSSUBW: "SSUBW",
	OpSHADD: "SHADD", OpUHADD: "UHADD", OpSHSUB: "SHSUB", OpUHSUB: "UHSUB",
	OpSRHADD: "SRHADD", OpURHADD: "URHADD",
	OpUABD: "UABD", OpSABD: "SABD", OpUABA: "UABA", OpSABA: "SABA",
	OpUABDL: "UABDL", OpSABDL: "SABDL", OpUABAL: "UABAL", OpSABAL: "SABAL",
	OpSHRN: "SHRN", OpRSHRN: "RSHRN", OpSHLL: "SHLL",
	OpSRA: "SRA", OpUSRA: "USRA", OpSLI: "SLI", OpSRI: "SRI",
	OpUQADD: "UQADD", OpSQADD: "SQADD", OpUQSUB: "UQSUB", OpSQSUB: "SQSUB",
	OpUQXTN: "UQXTN", OpSQXTN: "SQXTN", OpXTN: "XTN",
	OpADDP: "ADDP", OpVABS: "ABS.v", OpVNEG: "NEG.v", OpVNOT: "NOT.v", OpVCNT: "CNT",
	OpZIP1: "ZIP1", OpZIP2: "ZIP2", OpUZP1: "UZP1", OpUZP2: "UZP2",
	OpTRN1: "TRN1", OpTRN2: "TRN2", OpEXT: "EXT", OpREV64: "REV64",
	OpDUP: "DUP", OpINS: "INS", OpSMOV: "SMOV", OpUMOV: "UMOV",
	OpMOVI: "MOVI", OpMVNI: "MVNI", OpTBL: "TBL",
	OpFADD: "FADD", OpFSUB: "FSUB", OpFMUL: "FMUL", OpFDIV: "FDIV",
	OpFMADD: "FMADD", OpFMSUB: "FMSUB", OpFNMADD: "FNMADD", OpFNMSUB: "FNMSUB",
	OpFCMP: "FCMP", OpFCCMP: "FCCMP", OpFCSEL: "FCSEL",
	OpFCVTZS: "FCVTZS", OpFCVTZU: "FCVTZU", OpFCVT: "FCVT",
	OpFRINTP: "FRINTP", OpFRINTM: "FRINTM", OpFRINTA: "FRINTA", OpFRINTN: "FRINTN", OpFRINTZ: "FRINTZ",
	OpUCVTF: "UCVTF", OpSCVTF: "SCVTF", OpFMOV: "FMOV",
	OpFABS: "FABS", OpFNEG: "FNEG", OpFSQRT: "FSQRT",
	OpPRFM: "PRFM", OpPACIASP: "PACIASP", OpPACIBSP: "PACIBSP",
	OpAUTIASP: "AUTIASP", OpAUTIBSP: "AUTIBSP", OpHINT: "HINT", OpBRK: "BRK",
}

// Mnemonic returns op's display mnemonic, used for metadata tagging (spec §6).
func (op Op) Mnemonic() string {
	if m, ok := mnemonics[op]; ok {
		return m
	}
	return "UNKNOWN"
}

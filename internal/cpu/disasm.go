package cpu

import (
	"fmt"
	"strings"
)

// Operand placeholders in the mnemonic table:
//
//	d8  immediate byte     d16 immediate word
//	a8  high-page offset   a16 absolute address
//	r8  signed offset
var mnemonics = [256]string{
	"NOP", "LD BC,d16", "LD (BC),A", "INC BC", "INC B", "DEC B", "LD B,d8", "RLCA",
	"LD (a16),SP", "ADD HL,BC", "LD A,(BC)", "DEC BC", "INC C", "DEC C", "LD C,d8", "RRCA",
	"STOP", "LD DE,d16", "LD (DE),A", "INC DE", "INC D", "DEC D", "LD D,d8", "RLA",
	"JR r8", "ADD HL,DE", "LD A,(DE)", "DEC DE", "INC E", "DEC E", "LD E,d8", "RRA",
	"JR NZ,r8", "LD HL,d16", "LD (HL+),A", "INC HL", "INC H", "DEC H", "LD H,d8", "DAA",
	"JR Z,r8", "ADD HL,HL", "LD A,(HL+)", "DEC HL", "INC L", "DEC L", "LD L,d8", "CPL",
	"JR NC,r8", "LD SP,d16", "LD (HL-),A", "INC SP", "INC (HL)", "DEC (HL)", "LD (HL),d8", "SCF",
	"JR C,r8", "ADD HL,SP", "LD A,(HL-)", "DEC SP", "INC A", "DEC A", "LD A,d8", "CCF",
	// 0x40 - 0xBF are generated from the operand encoding
	0xC0: "RET NZ", "POP BC", "JP NZ,a16", "JP a16", "CALL NZ,a16", "PUSH BC", "ADD A,d8", "RST 00H",
	"RET Z", "RET", "JP Z,a16", "PREFIX CB", "CALL Z,a16", "CALL a16", "ADC A,d8", "RST 08H",
	"RET NC", "POP DE", "JP NC,a16", "", "CALL NC,a16", "PUSH DE", "SUB d8", "RST 10H",
	"RET C", "RETI", "JP C,a16", "", "CALL C,a16", "", "SBC A,d8", "RST 18H",
	"LDH (a8),A", "POP HL", "LD (C),A", "", "", "PUSH HL", "AND d8", "RST 20H",
	"ADD SP,r8", "JP (HL)", "LD (a16),A", "", "", "", "XOR d8", "RST 28H",
	"LDH A,(a8)", "POP AF", "LD A,(C)", "DI", "", "PUSH AF", "OR d8", "RST 30H",
	"LD HL,SP+r8", "LD SP,HL", "LD A,(a16)", "EI", "", "", "CP d8", "RST 38H",
}

var operandNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func init() {
	for op := 0x40; op <= 0xBF; op++ {
		src := operandNames[op&0x07]
		switch {
		case op == 0x76:
			mnemonics[op] = "HALT"
		case op < 0x80:
			mnemonics[op] = "LD " + operandNames[(op>>3)&0x07] + "," + src
		default:
			mnemonics[op] = aluNames[(op>>3)&0x07] + src
		}
	}
}

// Disassemble decodes the instruction at pc and returns its text and
// length in bytes. Unused opcodes decode as a one-byte "DB" directive.
func Disassemble(read func(uint16) uint8, pc uint16) (string, int) {
	opcode := read(pc)
	if opcode == 0xCB {
		return disassembleCB(read(pc + 1)), 2
	}

	text := mnemonics[opcode]
	if text == "" {
		return fmt.Sprintf("DB $%02X", opcode), 1
	}

	switch {
	case strings.Contains(text, "d16"):
		return strings.Replace(text, "d16", fmt.Sprintf("$%04X", readWordAt(read, pc+1)), 1), 3
	case strings.Contains(text, "a16"):
		return strings.Replace(text, "a16", fmt.Sprintf("$%04X", readWordAt(read, pc+1)), 1), 3
	case strings.Contains(text, "d8"):
		return strings.Replace(text, "d8", fmt.Sprintf("$%02X", read(pc+1)), 1), 2
	case strings.Contains(text, "a8"):
		return strings.Replace(text, "a8", fmt.Sprintf("$FF%02X", read(pc+1)), 1), 2
	case strings.Contains(text, "r8"):
		offset := int8(read(pc + 1))
		if strings.HasPrefix(text, "JR") {
			target := uint16(int32(pc) + 2 + int32(offset))
			return strings.Replace(text, "r8", fmt.Sprintf("$%04X", target), 1), 2
		}
		return strings.Replace(text, "r8", fmt.Sprintf("%d", offset), 1), 2
	case opcode == 0x10:
		return text, 2
	}
	return text, 1
}

func disassembleCB(opcode uint8) string {
	operand := operandNames[opcode&0x07]
	bit := (opcode >> 3) & 0x07
	switch opcode >> 6 {
	case 0:
		return shiftNames[bit] + " " + operand
	case 1:
		return fmt.Sprintf("BIT %d,%s", bit, operand)
	case 2:
		return fmt.Sprintf("RES %d,%s", bit, operand)
	default:
		return fmt.Sprintf("SET %d,%s", bit, operand)
	}
}

func readWordAt(read func(uint16) uint8, address uint16) uint16 {
	return uint16(read(address)) | uint16(read(address+1))<<8
}

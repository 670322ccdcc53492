package cpu

// Register operand encoding used by the LD r,r' block, the ALU block and
// the CB table: B C D E H L (HL) A.
const operandHL = 6

func (cpu *CPU) readOperand(index uint8) uint8 {
	switch index & 0x07 {
	case 0:
		return cpu.B
	case 1:
		return cpu.C
	case 2:
		return cpu.D
	case 3:
		return cpu.E
	case 4:
		return cpu.H
	case 5:
		return cpu.L
	case 6:
		return cpu.memory.Read(cpu.getHL())
	default:
		return cpu.A
	}
}

func (cpu *CPU) writeOperand(index uint8, value uint8) {
	switch index & 0x07 {
	case 0:
		cpu.B = value
	case 1:
		cpu.C = value
	case 2:
		cpu.D = value
	case 3:
		cpu.E = value
	case 4:
		cpu.H = value
	case 5:
		cpu.L = value
	case 6:
		cpu.memory.Write(cpu.getHL(), value)
	default:
		cpu.A = value
	}
}

// condition evaluates the NZ Z NC C condition encoded in bits 3-4
func (cpu *CPU) condition(opcode uint8) bool {
	switch (opcode >> 3) & 0x03 {
	case 0:
		return !cpu.flagZ()
	case 1:
		return cpu.flagZ()
	case 2:
		return !cpu.flagC()
	default:
		return cpu.flagC()
	}
}

func (cpu *CPU) jumpRelative(offset uint8) {
	cpu.PC = uint16(int32(cpu.PC) + int32(int8(offset)))
}

// execute runs a fetched primary opcode and returns its T-cycle cost.
// pc is the address the opcode was fetched from.
func (cpu *CPU) execute(opcode uint8, pc uint16) int {
	switch {
	case opcode == 0x76:
		return cpu.halt()
	case opcode >= 0x40 && opcode <= 0x7F:
		// LD r,r'
		src := opcode & 0x07
		dst := (opcode >> 3) & 0x07
		cpu.writeOperand(dst, cpu.readOperand(src))
		if src == operandHL || dst == operandHL {
			return 8
		}
		return 4
	case opcode >= 0x80 && opcode <= 0xBF:
		// ADD ADC SUB SBC AND XOR OR CP with a register operand
		src := opcode & 0x07
		cpu.alu(opcode>>3, cpu.readOperand(src))
		if src == operandHL {
			return 8
		}
		return 4
	}

	switch opcode {
	// 0x00 - 0x0F
	case 0x00: // NOP
		return 4
	case 0x01: // LD BC,d16
		cpu.setBC(cpu.fetchWord())
		return 12
	case 0x02: // LD (BC),A
		cpu.memory.Write(cpu.getBC(), cpu.A)
		return 8
	case 0x03: // INC BC
		cpu.setBC(cpu.getBC() + 1)
		return 8
	case 0x04: // INC B
		cpu.B = cpu.inc(cpu.B)
		return 4
	case 0x05: // DEC B
		cpu.B = cpu.dec(cpu.B)
		return 4
	case 0x06: // LD B,d8
		cpu.B = cpu.fetch()
		return 8
	case 0x07: // RLCA
		var out bool
		cpu.A, out = rlc(cpu.A)
		cpu.setFlags(false, false, false, out)
		return 4
	case 0x08: // LD (a16),SP
		cpu.writeWord(cpu.fetchWord(), cpu.SP)
		return 20
	case 0x09: // ADD HL,BC
		cpu.addHL(cpu.getBC())
		return 8
	case 0x0A: // LD A,(BC)
		cpu.A = cpu.memory.Read(cpu.getBC())
		return 8
	case 0x0B: // DEC BC
		cpu.setBC(cpu.getBC() - 1)
		return 8
	case 0x0C: // INC C
		cpu.C = cpu.inc(cpu.C)
		return 4
	case 0x0D: // DEC C
		cpu.C = cpu.dec(cpu.C)
		return 4
	case 0x0E: // LD C,d8
		cpu.C = cpu.fetch()
		return 8
	case 0x0F: // RRCA
		var out bool
		cpu.A, out = rrc(cpu.A)
		cpu.setFlags(false, false, false, out)
		return 4

	// 0x10 - 0x1F
	case 0x10: // STOP
		cpu.fetch() // STOP is followed by a padding byte
		cpu.state = Stopped
		return 4
	case 0x11: // LD DE,d16
		cpu.setDE(cpu.fetchWord())
		return 12
	case 0x12: // LD (DE),A
		cpu.memory.Write(cpu.getDE(), cpu.A)
		return 8
	case 0x13: // INC DE
		cpu.setDE(cpu.getDE() + 1)
		return 8
	case 0x14: // INC D
		cpu.D = cpu.inc(cpu.D)
		return 4
	case 0x15: // DEC D
		cpu.D = cpu.dec(cpu.D)
		return 4
	case 0x16: // LD D,d8
		cpu.D = cpu.fetch()
		return 8
	case 0x17: // RLA
		var out bool
		cpu.A, out = rl(cpu.A, cpu.flagC())
		cpu.setFlags(false, false, false, out)
		return 4
	case 0x18: // JR r8
		offset := cpu.fetch()
		cpu.jumpRelative(offset)
		return 12
	case 0x19: // ADD HL,DE
		cpu.addHL(cpu.getDE())
		return 8
	case 0x1A: // LD A,(DE)
		cpu.A = cpu.memory.Read(cpu.getDE())
		return 8
	case 0x1B: // DEC DE
		cpu.setDE(cpu.getDE() - 1)
		return 8
	case 0x1C: // INC E
		cpu.E = cpu.inc(cpu.E)
		return 4
	case 0x1D: // DEC E
		cpu.E = cpu.dec(cpu.E)
		return 4
	case 0x1E: // LD E,d8
		cpu.E = cpu.fetch()
		return 8
	case 0x1F: // RRA
		var out bool
		cpu.A, out = rr(cpu.A, cpu.flagC())
		cpu.setFlags(false, false, false, out)
		return 4

	// 0x20 - 0x3F
	case 0x20, 0x28, 0x30, 0x38: // JR cc,r8
		offset := cpu.fetch()
		if cpu.condition(opcode) {
			cpu.jumpRelative(offset)
			return 12
		}
		return 8
	case 0x21: // LD HL,d16
		cpu.setHL(cpu.fetchWord())
		return 12
	case 0x22: // LD (HL+),A
		hl := cpu.getHL()
		cpu.memory.Write(hl, cpu.A)
		cpu.setHL(hl + 1)
		return 8
	case 0x23: // INC HL
		cpu.setHL(cpu.getHL() + 1)
		return 8
	case 0x24: // INC H
		cpu.H = cpu.inc(cpu.H)
		return 4
	case 0x25: // DEC H
		cpu.H = cpu.dec(cpu.H)
		return 4
	case 0x26: // LD H,d8
		cpu.H = cpu.fetch()
		return 8
	case 0x27: // DAA
		cpu.daa()
		return 4
	case 0x29: // ADD HL,HL
		cpu.addHL(cpu.getHL())
		return 8
	case 0x2A: // LD A,(HL+)
		hl := cpu.getHL()
		cpu.A = cpu.memory.Read(hl)
		cpu.setHL(hl + 1)
		return 8
	case 0x2B: // DEC HL
		cpu.setHL(cpu.getHL() - 1)
		return 8
	case 0x2C: // INC L
		cpu.L = cpu.inc(cpu.L)
		return 4
	case 0x2D: // DEC L
		cpu.L = cpu.dec(cpu.L)
		return 4
	case 0x2E: // LD L,d8
		cpu.L = cpu.fetch()
		return 8
	case 0x2F: // CPL
		cpu.A = ^cpu.A
		cpu.setFlags(cpu.flagZ(), true, true, cpu.flagC())
		return 4
	case 0x31: // LD SP,d16
		cpu.SP = cpu.fetchWord()
		return 12
	case 0x32: // LD (HL-),A
		hl := cpu.getHL()
		cpu.memory.Write(hl, cpu.A)
		cpu.setHL(hl - 1)
		return 8
	case 0x33: // INC SP
		cpu.SP++
		return 8
	case 0x34: // INC (HL)
		hl := cpu.getHL()
		cpu.memory.Write(hl, cpu.inc(cpu.memory.Read(hl)))
		return 12
	case 0x35: // DEC (HL)
		hl := cpu.getHL()
		cpu.memory.Write(hl, cpu.dec(cpu.memory.Read(hl)))
		return 12
	case 0x36: // LD (HL),d8
		cpu.memory.Write(cpu.getHL(), cpu.fetch())
		return 12
	case 0x37: // SCF
		cpu.setFlags(cpu.flagZ(), false, false, true)
		return 4
	case 0x39: // ADD HL,SP
		cpu.addHL(cpu.SP)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := cpu.getHL()
		cpu.A = cpu.memory.Read(hl)
		cpu.setHL(hl - 1)
		return 8
	case 0x3B: // DEC SP
		cpu.SP--
		return 8
	case 0x3C: // INC A
		cpu.A = cpu.inc(cpu.A)
		return 4
	case 0x3D: // DEC A
		cpu.A = cpu.dec(cpu.A)
		return 4
	case 0x3E: // LD A,d8
		cpu.A = cpu.fetch()
		return 8
	case 0x3F: // CCF
		cpu.setFlags(cpu.flagZ(), false, false, !cpu.flagC())
		return 4

	// 0xC0 - 0xFF
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		if cpu.condition(opcode) {
			cpu.PC = cpu.popWord()
			return 20
		}
		return 8
	case 0xC1: // POP BC
		cpu.setBC(cpu.popWord())
		return 12
	case 0xD1: // POP DE
		cpu.setDE(cpu.popWord())
		return 12
	case 0xE1: // POP HL
		cpu.setHL(cpu.popWord())
		return 12
	case 0xF1: // POP AF
		cpu.setAF(cpu.popWord())
		return 12
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,a16
		target := cpu.fetchWord()
		if cpu.condition(opcode) {
			cpu.PC = target
			return 16
		}
		return 12
	case 0xC3: // JP a16
		cpu.PC = cpu.fetchWord()
		return 16
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,a16
		target := cpu.fetchWord()
		if cpu.condition(opcode) {
			cpu.pushWord(cpu.PC)
			cpu.PC = target
			return 24
		}
		return 12
	case 0xCD: // CALL a16
		target := cpu.fetchWord()
		cpu.pushWord(cpu.PC)
		cpu.PC = target
		return 24
	case 0xC5: // PUSH BC
		cpu.pushWord(cpu.getBC())
		return 16
	case 0xD5: // PUSH DE
		cpu.pushWord(cpu.getDE())
		return 16
	case 0xE5: // PUSH HL
		cpu.pushWord(cpu.getHL())
		return 16
	case 0xF5: // PUSH AF
		cpu.pushWord(cpu.getAF())
		return 16
	case 0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE: // ALU A,d8
		cpu.alu(opcode>>3, cpu.fetch())
		return 8
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		cpu.pushWord(cpu.PC)
		cpu.PC = uint16(opcode & 0x38)
		return 16
	case 0xC9: // RET
		cpu.PC = cpu.popWord()
		return 16
	case 0xD9: // RETI
		cpu.PC = cpu.popWord()
		cpu.IME = true
		cpu.eiDelay = 0
		return 16
	case 0xCB:
		return cpu.executeCB(cpu.fetch(), pc)
	case 0xE0: // LDH (a8),A
		cpu.memory.Write(0xFF00|uint16(cpu.fetch()), cpu.A)
		return 12
	case 0xF0: // LDH A,(a8)
		cpu.A = cpu.memory.Read(0xFF00 | uint16(cpu.fetch()))
		return 12
	case 0xE2: // LD (C),A
		cpu.memory.Write(0xFF00|uint16(cpu.C), cpu.A)
		return 8
	case 0xF2: // LD A,(C)
		cpu.A = cpu.memory.Read(0xFF00 | uint16(cpu.C))
		return 8
	case 0xE8: // ADD SP,r8
		cpu.SP = cpu.addSPOffset(cpu.fetch())
		return 16
	case 0xF8: // LD HL,SP+r8
		cpu.setHL(cpu.addSPOffset(cpu.fetch()))
		return 12
	case 0xE9: // JP (HL)
		cpu.PC = cpu.getHL()
		return 4
	case 0xF9: // LD SP,HL
		cpu.SP = cpu.getHL()
		return 8
	case 0xEA: // LD (a16),A
		cpu.memory.Write(cpu.fetchWord(), cpu.A)
		return 16
	case 0xFA: // LD A,(a16)
		cpu.A = cpu.memory.Read(cpu.fetchWord())
		return 16
	case 0xF3: // DI
		cpu.IME = false
		cpu.eiDelay = 0
		return 4
	case 0xFB: // EI
		if !cpu.IME && cpu.eiDelay == 0 {
			// Counted down after this instruction and the next one
			cpu.eiDelay = 2
		}
		return 4
	}

	// D3 DB DD E3 E4 EB EC ED F4 FC FD
	panic(&UnknownOpcodeError{Opcode: opcode, PC: pc})
}

// halt suspends execution until an interrupt is pending. With IME clear
// and an interrupt already pending the CPU does not halt and the next
// opcode byte is read twice.
func (cpu *CPU) halt() int {
	pending := cpu.memory.Read(ieRegister) & cpu.memory.Read(ifRegister) & interruptMask
	if !cpu.IME && pending != 0 {
		cpu.haltBug = true
		return 4
	}
	cpu.state = Halted
	return 4
}

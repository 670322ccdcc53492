package cpu

// executeCB runs an opcode from the 0xCB-prefixed table. The returned cost
// includes the prefix fetch.
//
// Layout: 00-3F rotates and shifts, 40-7F BIT, 80-BF RES, C0-FF SET.
// The low three bits select the operand (B C D E H L (HL) A).
func (cpu *CPU) executeCB(opcode uint8, pc uint16) int {
	index := opcode & 0x07
	bit := (opcode >> 3) & 0x07
	value := cpu.readOperand(index)

	cycles := 8
	if index == operandHL {
		cycles = 16
	}

	switch opcode >> 6 {
	case 0:
		var result uint8
		var out bool
		switch bit {
		case 0: // RLC
			result, out = rlc(value)
		case 1: // RRC
			result, out = rrc(value)
		case 2: // RL
			result, out = rl(value, cpu.flagC())
		case 3: // RR
			result, out = rr(value, cpu.flagC())
		case 4: // SLA
			result, out = sla(value)
		case 5: // SRA
			result, out = sra(value)
		case 6: // SWAP
			result, out = swap(value), false
		case 7: // SRL
			result, out = srl(value)
		}
		cpu.writeOperand(index, result)
		cpu.setFlags(result == 0, false, false, out)
	case 1: // BIT b,r
		cpu.setFlags(value&(1<<bit) == 0, false, true, cpu.flagC())
		if index == operandHL {
			cycles = 12
		}
	case 2: // RES b,r
		cpu.writeOperand(index, value&^(1<<bit))
	case 3: // SET b,r
		cpu.writeOperand(index, value|(1<<bit))
	default:
		panic(&UnknownOpcodeError{Opcode: opcode, PC: pc, Extended: true})
	}

	return cycles
}

package cpu

// 8-bit arithmetic and logic. Every helper leaves its result in A (or
// returns it) and sets flags the way the hardware does.

func (cpu *CPU) add(value uint8) {
	a := cpu.A
	result := uint16(a) + uint16(value)
	cpu.A = uint8(result)
	cpu.setFlags(cpu.A == 0, false, (a&0x0F)+(value&0x0F) > 0x0F, result > 0xFF)
}

func (cpu *CPU) adc(value uint8) {
	a := cpu.A
	var carry uint8
	if cpu.flagC() {
		carry = 1
	}
	result := uint16(a) + uint16(value) + uint16(carry)
	cpu.A = uint8(result)
	cpu.setFlags(cpu.A == 0, false, (a&0x0F)+(value&0x0F)+carry > 0x0F, result > 0xFF)
}

func (cpu *CPU) sub(value uint8) {
	a := cpu.A
	cpu.A = a - value
	cpu.setFlags(cpu.A == 0, true, a&0x0F < value&0x0F, a < value)
}

func (cpu *CPU) sbc(value uint8) {
	a := cpu.A
	var carry uint8
	if cpu.flagC() {
		carry = 1
	}
	result := int(a) - int(value) - int(carry)
	cpu.A = uint8(result)
	halfBorrow := int(a&0x0F)-int(value&0x0F)-int(carry) < 0
	cpu.setFlags(cpu.A == 0, true, halfBorrow, result < 0)
}

func (cpu *CPU) and(value uint8) {
	cpu.A &= value
	cpu.setFlags(cpu.A == 0, false, true, false)
}

func (cpu *CPU) xor(value uint8) {
	cpu.A ^= value
	cpu.setFlags(cpu.A == 0, false, false, false)
}

func (cpu *CPU) or(value uint8) {
	cpu.A |= value
	cpu.setFlags(cpu.A == 0, false, false, false)
}

// cp compares without storing the result
func (cpu *CPU) cp(value uint8) {
	a := cpu.A
	cpu.setFlags(a == value, true, a&0x0F < value&0x0F, a < value)
}

// alu dispatches the eight accumulator operations in opcode order
// (ADD ADC SUB SBC AND XOR OR CP)
func (cpu *CPU) alu(op uint8, value uint8) {
	switch op & 0x07 {
	case 0:
		cpu.add(value)
	case 1:
		cpu.adc(value)
	case 2:
		cpu.sub(value)
	case 3:
		cpu.sbc(value)
	case 4:
		cpu.and(value)
	case 5:
		cpu.xor(value)
	case 6:
		cpu.or(value)
	case 7:
		cpu.cp(value)
	}
}

// inc and dec preserve C
func (cpu *CPU) inc(value uint8) uint8 {
	result := value + 1
	cpu.setFlags(result == 0, false, value&0x0F == 0x0F, cpu.flagC())
	return result
}

func (cpu *CPU) dec(value uint8) uint8 {
	result := value - 1
	cpu.setFlags(result == 0, true, value&0x0F == 0x00, cpu.flagC())
	return result
}

// addHL adds a 16-bit value to HL, Z unchanged
func (cpu *CPU) addHL(value uint16) {
	hl := cpu.getHL()
	result := uint32(hl) + uint32(value)
	cpu.setHL(uint16(result))
	cpu.setFlags(cpu.flagZ(), false, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF, result > 0xFFFF)
}

// addSPOffset computes SP + signed offset with the flags of ADD SP,e and
// LD HL,SP+e (carries come from the low byte, Z and N cleared)
func (cpu *CPU) addSPOffset(offset uint8) uint16 {
	sp := cpu.SP
	result := uint16(int32(sp) + int32(int8(offset)))
	half := (sp&0x000F)+(uint16(offset)&0x000F) > 0x000F
	carry := (sp&0x00FF)+uint16(offset) > 0x00FF
	cpu.setFlags(false, false, half, carry)
	return result
}

// daa adjusts A to packed BCD after an addition or subtraction
func (cpu *CPU) daa() {
	a := cpu.A
	carry := cpu.flagC()
	if !cpu.flagN() {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if cpu.flagH() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if cpu.flagH() {
			a -= 0x06
		}
	}
	cpu.A = a
	cpu.setFlags(a == 0, cpu.flagN(), false, carry)
}

// Rotates and shifts shared by the accumulator forms and the CB table.
// Each returns the result and the bit shifted out.

func rlc(value uint8) (uint8, bool) {
	out := value&0x80 != 0
	return value<<1 | value>>7, out
}

func rrc(value uint8) (uint8, bool) {
	out := value&0x01 != 0
	return value>>1 | value<<7, out
}

func rl(value uint8, carry bool) (uint8, bool) {
	out := value&0x80 != 0
	result := value << 1
	if carry {
		result |= 0x01
	}
	return result, out
}

func rr(value uint8, carry bool) (uint8, bool) {
	out := value&0x01 != 0
	result := value >> 1
	if carry {
		result |= 0x80
	}
	return result, out
}

func sla(value uint8) (uint8, bool) {
	return value << 1, value&0x80 != 0
}

// sra keeps bit 7
func sra(value uint8) (uint8, bool) {
	return value>>1 | value&0x80, value&0x01 != 0
}

func srl(value uint8) (uint8, bool) {
	return value >> 1, value&0x01 != 0
}

func swap(value uint8) uint8 {
	return value<<4 | value>>4
}

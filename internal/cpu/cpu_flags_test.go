package cpu

import (
	"testing"
)

// FlagTest represents a single-instruction flag test case
type FlagTest struct {
	Name       string
	Program    []uint8
	A          uint8
	B          uint8
	F          uint8
	ExpectedA  uint8
	Z, N, H, C bool
}

func runFlagTests(t *testing.T, tests []FlagTest) {
	t.Helper()

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.CPU.A = test.A
			helper.CPU.B = test.B
			helper.CPU.setF(test.F)
			helper.LoadProgram(test.Program...)

			helper.CPU.Step()

			if helper.CPU.A != test.ExpectedA {
				t.Errorf("Expected A=0x%02X, got 0x%02X", test.ExpectedA, helper.CPU.A)
			}
			helper.AssertFlags(t, test.Name, test.Z, test.N, test.H, test.C)
		})
	}
}

func TestAdditionFlags(t *testing.T) {
	runFlagTests(t, []FlagTest{
		{Name: "ADD simple", Program: []uint8{0x80}, A: 0x01, B: 0x02, ExpectedA: 0x03},
		{Name: "ADD half carry", Program: []uint8{0x80}, A: 0x0F, B: 0x01, ExpectedA: 0x10, H: true},
		{Name: "ADD carry and zero", Program: []uint8{0x80}, A: 0xFF, B: 0x01, ExpectedA: 0x00, Z: true, H: true, C: true},
		{Name: "ADD carry without half", Program: []uint8{0x80}, A: 0xF0, B: 0x20, ExpectedA: 0x10, C: true},
		{Name: "ADD d8", Program: []uint8{0xC6, 0x3A}, A: 0xC6, ExpectedA: 0x00, Z: true, H: true, C: true},
		{Name: "ADC uses carry", Program: []uint8{0x88}, A: 0x0E, B: 0x01, F: cFlagMask, ExpectedA: 0x10, H: true},
		{Name: "ADC carry into overflow", Program: []uint8{0x88}, A: 0xFE, B: 0x01, F: cFlagMask, ExpectedA: 0x00, Z: true, H: true, C: true},
		{Name: "ADC without carry", Program: []uint8{0x88}, A: 0x01, B: 0x01, ExpectedA: 0x02},
	})
}

func TestSubtractionFlags(t *testing.T) {
	runFlagTests(t, []FlagTest{
		{Name: "SUB equal", Program: []uint8{0x90}, A: 0x3E, B: 0x3E, ExpectedA: 0x00, Z: true, N: true},
		{Name: "SUB half borrow", Program: []uint8{0x90}, A: 0x3E, B: 0x0F, ExpectedA: 0x2F, N: true, H: true},
		{Name: "SUB borrow", Program: []uint8{0x90}, A: 0x3E, B: 0x40, ExpectedA: 0xFE, N: true, C: true},
		{Name: "SBC with carry", Program: []uint8{0x98}, A: 0x3B, B: 0x2A, F: cFlagMask, ExpectedA: 0x10, N: true},
		{Name: "SBC carry causes borrow", Program: []uint8{0x98}, A: 0x3B, B: 0x3B, F: cFlagMask, ExpectedA: 0xFF, N: true, H: true, C: true},
		{Name: "SBC half borrow from carry", Program: []uint8{0x98}, A: 0x10, B: 0x00, F: cFlagMask, ExpectedA: 0x0F, N: true, H: true},
		{Name: "CP equal keeps A", Program: []uint8{0xB8}, A: 0x3C, B: 0x3C, ExpectedA: 0x3C, Z: true, N: true},
		{Name: "CP greater", Program: []uint8{0xFE, 0x40}, A: 0x3C, ExpectedA: 0x3C, N: true, C: true},
		{Name: "CP half borrow", Program: []uint8{0xFE, 0x2F}, A: 0x3C, ExpectedA: 0x3C, N: true, H: true},
	})
}

func TestLogicFlags(t *testing.T) {
	runFlagTests(t, []FlagTest{
		{Name: "AND sets H", Program: []uint8{0xA0}, A: 0x5A, B: 0x3F, F: cFlagMask, ExpectedA: 0x1A, H: true},
		{Name: "AND zero", Program: []uint8{0xE6, 0x00}, A: 0x5A, ExpectedA: 0x00, Z: true, H: true},
		{Name: "OR", Program: []uint8{0xB0}, A: 0x5A, B: 0x03, F: 0xF0, ExpectedA: 0x5B},
		{Name: "OR zero", Program: []uint8{0xB0}, A: 0x00, B: 0x00, ExpectedA: 0x00, Z: true},
		{Name: "XOR A", Program: []uint8{0xAF}, A: 0xFF, F: 0x70, ExpectedA: 0x00, Z: true},
		{Name: "XOR d8", Program: []uint8{0xEE, 0x0F}, A: 0xFF, ExpectedA: 0xF0},
	})
}

func TestIncDecFlags(t *testing.T) {
	runFlagTests(t, []FlagTest{
		{Name: "INC A half carry keeps C", Program: []uint8{0x3C}, A: 0x0F, F: cFlagMask, ExpectedA: 0x10, H: true, C: true},
		{Name: "INC A wraps to zero", Program: []uint8{0x3C}, A: 0xFF, ExpectedA: 0x00, Z: true, H: true},
		{Name: "INC A keeps clear C", Program: []uint8{0x3C}, A: 0x01, ExpectedA: 0x02},
		{Name: "DEC A to zero", Program: []uint8{0x3D}, A: 0x01, ExpectedA: 0x00, Z: true, N: true},
		{Name: "DEC A half borrow", Program: []uint8{0x3D}, A: 0x10, ExpectedA: 0x0F, N: true, H: true},
		{Name: "DEC A wraps keeps C", Program: []uint8{0x3D}, A: 0x00, F: cFlagMask, ExpectedA: 0xFF, N: true, H: true, C: true},
	})
}

// TestIncDecPreserveCarry runs each INC/DEC form with C set and with C clear
func TestIncDecPreserveCarry(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint8
		setup  func(*CPUTestHelper)
		result func(*CPUTestHelper) uint16
		want   uint16
		wide   bool
	}{
		{"INC B", 0x04, func(h *CPUTestHelper) { h.CPU.B = 0xFF }, func(h *CPUTestHelper) uint16 { return uint16(h.CPU.B) }, 0x00, false},
		{"DEC B", 0x05, func(h *CPUTestHelper) { h.CPU.B = 0x00 }, func(h *CPUTestHelper) uint16 { return uint16(h.CPU.B) }, 0xFF, false},
		{"INC C", 0x0C, func(h *CPUTestHelper) { h.CPU.C = 0x0F }, func(h *CPUTestHelper) uint16 { return uint16(h.CPU.C) }, 0x10, false},
		{"DEC E", 0x1D, func(h *CPUTestHelper) { h.CPU.E = 0x01 }, func(h *CPUTestHelper) uint16 { return uint16(h.CPU.E) }, 0x00, false},
		{"INC (HL)", 0x34, func(h *CPUTestHelper) { h.CPU.setHL(0xD100); h.Memory.data[0xD100] = 0xFF },
			func(h *CPUTestHelper) uint16 { return uint16(h.Memory.data[0xD100]) }, 0x00, false},
		{"DEC (HL)", 0x35, func(h *CPUTestHelper) { h.CPU.setHL(0xD100); h.Memory.data[0xD100] = 0x00 },
			func(h *CPUTestHelper) uint16 { return uint16(h.Memory.data[0xD100]) }, 0xFF, false},
		{"INC DE", 0x13, func(h *CPUTestHelper) { h.CPU.setDE(0xFFFF) }, func(h *CPUTestHelper) uint16 { return h.CPU.getDE() }, 0x0000, true},
		{"DEC HL", 0x2B, func(h *CPUTestHelper) { h.CPU.setHL(0x0000) }, func(h *CPUTestHelper) uint16 { return h.CPU.getHL() }, 0xFFFF, true},
		{"INC SP", 0x33, func(h *CPUTestHelper) { h.CPU.SP = 0xFFFF }, func(h *CPUTestHelper) uint16 { return h.CPU.SP }, 0x0000, true},
		{"DEC SP", 0x3B, func(h *CPUTestHelper) { h.CPU.SP = 0x0000 }, func(h *CPUTestHelper) uint16 { return h.CPU.SP }, 0xFFFF, true},
	}

	for _, test := range tests {
		for _, carry := range []bool{true, false} {
			name := test.name + " C clear"
			var f uint8
			if carry {
				name = test.name + " C set"
				f = cFlagMask
			}
			t.Run(name, func(t *testing.T) {
				helper := NewCPUTestHelper()
				test.setup(helper)
				helper.CPU.setF(f)
				helper.LoadProgram(test.opcode)

				helper.CPU.Step()

				if got := test.result(helper); got != test.want {
					t.Errorf("Expected result 0x%04X, got 0x%04X", test.want, got)
				}
				if helper.CPU.flagC() != carry {
					t.Errorf("Expected C=%v, got %v", carry, helper.CPU.flagC())
				}
				if test.wide && helper.CPU.F != f {
					t.Errorf("Expected F=0x%02X unchanged, got 0x%02X", f, helper.CPU.F)
				}
			})
		}
	}
}

func TestAccumulatorRotateFlags(t *testing.T) {
	runFlagTests(t, []FlagTest{
		{Name: "RLCA", Program: []uint8{0x07}, A: 0x85, ExpectedA: 0x0B, C: true},
		{Name: "RLCA zero result clears Z", Program: []uint8{0x07}, A: 0x00, F: zFlagMask, ExpectedA: 0x00},
		{Name: "RRCA", Program: []uint8{0x0F}, A: 0x3B, ExpectedA: 0x9D, C: true},
		{Name: "RLA through carry", Program: []uint8{0x17}, A: 0x95, F: cFlagMask, ExpectedA: 0x2B, C: true},
		{Name: "RRA through carry", Program: []uint8{0x1F}, A: 0x81, ExpectedA: 0x40, C: true},
		{Name: "CPL", Program: []uint8{0x2F}, A: 0x35, ExpectedA: 0xCA, N: true, H: true},
		{Name: "SCF", Program: []uint8{0x37}, A: 0x00, F: zFlagMask | nFlagMask | hFlagMask, ExpectedA: 0x00, Z: true, C: true},
		{Name: "CCF", Program: []uint8{0x3F}, A: 0x00, F: cFlagMask | hFlagMask, ExpectedA: 0x00},
	})
}

func TestDAA(t *testing.T) {
	tests := []struct {
		name      string
		program   []uint8
		a, b      uint8
		expectedA uint8
		z, c      bool
	}{
		{"ADD 15+27", []uint8{0x80, 0x27}, 0x15, 0x27, 0x42, false, false},
		{"ADD 45+38", []uint8{0x80, 0x27}, 0x45, 0x38, 0x83, false, false},
		{"ADD 99+01", []uint8{0x80, 0x27}, 0x99, 0x01, 0x00, true, true},
		{"ADD 90+90", []uint8{0x80, 0x27}, 0x90, 0x90, 0x80, false, true},
		{"SUB 42-15", []uint8{0x90, 0x27}, 0x42, 0x15, 0x27, false, false},
		{"SUB 10-20", []uint8{0x90, 0x27}, 0x10, 0x20, 0x90, false, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.CPU.A = test.a
			helper.CPU.B = test.b
			helper.LoadProgram(test.program...)
			helper.StepN(2)

			if helper.CPU.A != test.expectedA {
				t.Errorf("Expected A=0x%02X, got 0x%02X", test.expectedA, helper.CPU.A)
			}
			if helper.CPU.flagZ() != test.z || helper.CPU.flagC() != test.c || helper.CPU.flagH() {
				t.Errorf("Unexpected flags %s", helper.CPU.GetFlagsString())
			}
		})
	}
}

func TestSixteenBitFlags(t *testing.T) {
	t.Run("ADD HL half carry from bit 11 keeps Z", func(t *testing.T) {
		helper := NewCPUTestHelper()
		helper.CPU.setHL(0x0FFF)
		helper.CPU.setBC(0x0001)
		helper.CPU.setF(zFlagMask)
		helper.LoadProgram(0x09)
		helper.CPU.Step()

		if helper.CPU.getHL() != 0x1000 {
			t.Errorf("Expected HL=0x1000, got 0x%04X", helper.CPU.getHL())
		}
		helper.AssertFlags(t, "ADD HL,BC", true, false, true, false)
	})

	t.Run("ADD HL carry from bit 15", func(t *testing.T) {
		helper := NewCPUTestHelper()
		helper.CPU.setHL(0x8000)
		helper.CPU.setDE(0x8000)
		helper.LoadProgram(0x19)
		helper.CPU.Step()

		if helper.CPU.getHL() != 0x0000 {
			t.Errorf("Expected HL=0x0000, got 0x%04X", helper.CPU.getHL())
		}
		helper.AssertFlags(t, "ADD HL,DE", false, false, false, true)
	})

	t.Run("INC/DEC rr touch no flags", func(t *testing.T) {
		helper := NewCPUTestHelper()
		helper.CPU.setBC(0xFFFF)
		helper.CPU.setF(0xA0)
		helper.LoadProgram(0x03, 0x0B, 0x0B)
		helper.CPU.Step()
		if helper.CPU.getBC() != 0x0000 || helper.CPU.F != 0xA0 {
			t.Errorf("INC BC: BC=0x%04X F=0x%02X", helper.CPU.getBC(), helper.CPU.F)
		}
		helper.StepN(2)
		if helper.CPU.getBC() != 0xFFFE || helper.CPU.F != 0xA0 {
			t.Errorf("DEC BC: BC=0x%04X F=0x%02X", helper.CPU.getBC(), helper.CPU.F)
		}
	})

	t.Run("ADD SP,e uses low byte carries", func(t *testing.T) {
		helper := NewCPUTestHelper()
		helper.CPU.SP = 0xFFF8
		helper.CPU.setF(zFlagMask | nFlagMask)
		helper.LoadProgram(0xE8, 0x08)
		helper.CPU.Step()

		if helper.CPU.SP != 0x0000 {
			t.Errorf("Expected SP=0x0000, got 0x%04X", helper.CPU.SP)
		}
		helper.AssertFlags(t, "ADD SP,8", false, false, true, true)
	})

	t.Run("LD HL,SP-1", func(t *testing.T) {
		helper := NewCPUTestHelper()
		helper.CPU.SP = 0xD000
		helper.LoadProgram(0xF8, 0xFF)
		helper.CPU.Step()

		if helper.CPU.getHL() != 0xCFFF {
			t.Errorf("Expected HL=0xCFFF, got 0x%04X", helper.CPU.getHL())
		}
		// 0x00 + 0xFF in the low byte produces neither carry
		helper.AssertFlags(t, "LD HL,SP-1", false, false, false, false)
	})
}

func TestCBFlags(t *testing.T) {
	tests := []struct {
		name       string
		opcode     uint8
		b          uint8
		f          uint8
		expectedB  uint8
		z, h, c    bool
		leavesRegs bool
	}{
		{name: "RLC B", opcode: 0x00, b: 0x85, expectedB: 0x0B, c: true},
		{name: "RLC B zero", opcode: 0x00, b: 0x00, expectedB: 0x00, z: true},
		{name: "RRC B", opcode: 0x08, b: 0x01, expectedB: 0x80, c: true},
		{name: "RL B", opcode: 0x10, b: 0x80, expectedB: 0x00, z: true, c: true},
		{name: "RR B with carry", opcode: 0x18, b: 0x01, f: cFlagMask, expectedB: 0x80, c: true},
		{name: "SLA B", opcode: 0x20, b: 0xFF, expectedB: 0xFE, c: true},
		{name: "SRA B keeps sign", opcode: 0x28, b: 0x8A, expectedB: 0xC5},
		{name: "SWAP B", opcode: 0x30, b: 0xF0, f: 0xF0, expectedB: 0x0F},
		{name: "SWAP B zero", opcode: 0x30, b: 0x00, expectedB: 0x00, z: true},
		{name: "SRL B", opcode: 0x38, b: 0x01, expectedB: 0x00, z: true, c: true},
		{name: "BIT 7,B clear", opcode: 0x78, b: 0x7F, f: cFlagMask, expectedB: 0x7F, z: true, h: true, c: true},
		{name: "BIT 0,B set", opcode: 0x40, b: 0x01, expectedB: 0x01, h: true},
		{name: "RES 0,B", opcode: 0x80, b: 0xFF, f: 0xF0, expectedB: 0xFE, z: true, h: true, c: true},
		{name: "SET 7,B", opcode: 0xF8, b: 0x00, expectedB: 0x80},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.CPU.B = test.b
			helper.CPU.setF(test.f)
			helper.LoadProgram(0xCB, test.opcode)
			helper.CPU.Step()

			if helper.CPU.B != test.expectedB {
				t.Errorf("Expected B=0x%02X, got 0x%02X", test.expectedB, helper.CPU.B)
			}
			if test.name == "RES 0,B" {
				// RES and SET leave every flag alone
				helper.AssertFlags(t, test.name, true, true, true, true)
				return
			}
			helper.AssertFlags(t, test.name, test.z, false, test.h, test.c)
		})
	}
}

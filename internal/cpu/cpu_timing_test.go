package cpu

import (
	"testing"
)

// TimingTest represents a test case for CPU instruction timing
type TimingTest struct {
	Name           string
	Setup          func(*CPUTestHelper)
	Program        []uint8
	ExpectedCycles int
	ExpectedPC     uint16
}

func runTimingTests(t *testing.T, tests []TimingTest) {
	t.Helper()

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.CPU.SP = 0xD000
			helper.CPU.setHL(0xD100)
			if test.Setup != nil {
				test.Setup(helper)
			}
			helper.LoadProgram(test.Program...)

			cycles := helper.CPU.Step()

			if cycles != test.ExpectedCycles {
				t.Errorf("Expected %d cycles, got %d", test.ExpectedCycles, cycles)
			}
			if test.ExpectedPC != 0 && helper.CPU.PC != test.ExpectedPC {
				t.Errorf("Expected PC=0x%04X, got 0x%04X", test.ExpectedPC, helper.CPU.PC)
			}
		})
	}
}

func setFlags(f uint8) func(*CPUTestHelper) {
	return func(h *CPUTestHelper) {
		h.CPU.setF(f)
	}
}

// TestBasicInstructionTiming tests fundamental instruction cycle counts
func TestBasicInstructionTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		{Name: "NOP", Program: []uint8{0x00}, ExpectedCycles: 4, ExpectedPC: 0xC001},
		{Name: "LD BC,d16", Program: []uint8{0x01, 0x34, 0x12}, ExpectedCycles: 12, ExpectedPC: 0xC003},
		{Name: "LD (BC),A", Program: []uint8{0x02}, ExpectedCycles: 8},
		{Name: "INC BC", Program: []uint8{0x03}, ExpectedCycles: 8},
		{Name: "INC B", Program: []uint8{0x04}, ExpectedCycles: 4},
		{Name: "LD B,d8", Program: []uint8{0x06, 0x00}, ExpectedCycles: 8, ExpectedPC: 0xC002},
		{Name: "LD (a16),SP", Program: []uint8{0x08, 0x00, 0xD2}, ExpectedCycles: 20, ExpectedPC: 0xC003},
		{Name: "ADD HL,BC", Program: []uint8{0x09}, ExpectedCycles: 8},
		{Name: "INC (HL)", Program: []uint8{0x34}, ExpectedCycles: 12},
		{Name: "DEC (HL)", Program: []uint8{0x35}, ExpectedCycles: 12},
		{Name: "LD (HL),d8", Program: []uint8{0x36, 0x00}, ExpectedCycles: 12},
		{Name: "LD B,C", Program: []uint8{0x41}, ExpectedCycles: 4},
		{Name: "LD B,(HL)", Program: []uint8{0x46}, ExpectedCycles: 8},
		{Name: "LD (HL),B", Program: []uint8{0x70}, ExpectedCycles: 8},
		{Name: "ADD A,B", Program: []uint8{0x80}, ExpectedCycles: 4},
		{Name: "ADD A,(HL)", Program: []uint8{0x86}, ExpectedCycles: 8},
		{Name: "CP d8", Program: []uint8{0xFE, 0x00}, ExpectedCycles: 8},
		{Name: "PUSH BC", Program: []uint8{0xC5}, ExpectedCycles: 16},
		{Name: "POP BC", Program: []uint8{0xC1}, ExpectedCycles: 12},
		{Name: "LDH (a8),A", Program: []uint8{0xE0, 0x80}, ExpectedCycles: 12},
		{Name: "LDH A,(a8)", Program: []uint8{0xF0, 0x80}, ExpectedCycles: 12},
		{Name: "LD (C),A", Program: []uint8{0xE2}, ExpectedCycles: 8},
		{Name: "LD (a16),A", Program: []uint8{0xEA, 0x00, 0xD2}, ExpectedCycles: 16},
		{Name: "LD A,(a16)", Program: []uint8{0xFA, 0x00, 0xD2}, ExpectedCycles: 16},
		{Name: "ADD SP,r8", Program: []uint8{0xE8, 0x01}, ExpectedCycles: 16},
		{Name: "LD HL,SP+r8", Program: []uint8{0xF8, 0x01}, ExpectedCycles: 12},
		{Name: "LD SP,HL", Program: []uint8{0xF9}, ExpectedCycles: 8},
		{Name: "DI", Program: []uint8{0xF3}, ExpectedCycles: 4},
		{Name: "EI", Program: []uint8{0xFB}, ExpectedCycles: 4},
		{Name: "HALT", Program: []uint8{0x76}, ExpectedCycles: 4},
	})
}

// TestBranchTiming checks taken and not-taken costs
func TestBranchTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		{Name: "JR", Program: []uint8{0x18, 0x02}, ExpectedCycles: 12, ExpectedPC: 0xC004},
		{Name: "JR backwards", Program: []uint8{0x18, 0xFE}, ExpectedCycles: 12, ExpectedPC: 0xC000},
		{Name: "JR NZ taken", Program: []uint8{0x20, 0x05}, ExpectedCycles: 12, ExpectedPC: 0xC007},
		{Name: "JR NZ not taken", Setup: setFlags(zFlagMask), Program: []uint8{0x20, 0x05}, ExpectedCycles: 8, ExpectedPC: 0xC002},
		{Name: "JR C taken", Setup: setFlags(cFlagMask), Program: []uint8{0x38, 0x10}, ExpectedCycles: 12, ExpectedPC: 0xC012},
		{Name: "JP", Program: []uint8{0xC3, 0x00, 0xD0}, ExpectedCycles: 16, ExpectedPC: 0xD000},
		{Name: "JP Z taken", Setup: setFlags(zFlagMask), Program: []uint8{0xCA, 0x00, 0xD0}, ExpectedCycles: 16, ExpectedPC: 0xD000},
		{Name: "JP Z not taken", Program: []uint8{0xCA, 0x00, 0xD0}, ExpectedCycles: 12, ExpectedPC: 0xC003},
		{Name: "JP (HL)", Program: []uint8{0xE9}, ExpectedCycles: 4, ExpectedPC: 0xD100},
		{Name: "CALL", Program: []uint8{0xCD, 0x00, 0xD0}, ExpectedCycles: 24, ExpectedPC: 0xD000},
		{Name: "CALL NC taken", Program: []uint8{0xD4, 0x00, 0xD0}, ExpectedCycles: 24, ExpectedPC: 0xD000},
		{Name: "CALL NC not taken", Setup: setFlags(cFlagMask), Program: []uint8{0xD4, 0x00, 0xD0}, ExpectedCycles: 12, ExpectedPC: 0xC003},
		{Name: "RET", Program: []uint8{0xC9}, ExpectedCycles: 16},
		{Name: "RETI", Program: []uint8{0xD9}, ExpectedCycles: 16},
		{Name: "RET Z taken", Setup: setFlags(zFlagMask), Program: []uint8{0xC8}, ExpectedCycles: 20},
		{Name: "RET Z not taken", Program: []uint8{0xC8}, ExpectedCycles: 8, ExpectedPC: 0xC001},
		{Name: "RST 38H", Program: []uint8{0xFF}, ExpectedCycles: 16, ExpectedPC: 0x0038},
	})
}

// TestCallReturnRoundTrip pairs each CALL form with the RET of the same
// condition, taken and not taken
func TestCallReturnRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		call, ret  uint8
		flags      uint8
		taken      bool
		callCycles int
		retCycles  int
	}{
		{"unconditional", 0xCD, 0xC9, 0, true, 24, 16},
		{"NZ taken", 0xC4, 0xC0, 0, true, 24, 20},
		{"NZ not taken", 0xC4, 0xC0, zFlagMask, false, 12, 8},
		{"Z taken", 0xCC, 0xC8, zFlagMask, true, 24, 20},
		{"Z not taken", 0xCC, 0xC8, 0, false, 12, 8},
		{"NC taken", 0xD4, 0xD0, 0, true, 24, 20},
		{"NC not taken", 0xD4, 0xD0, cFlagMask, false, 12, 8},
		{"C taken", 0xDC, 0xD8, cFlagMask, true, 24, 20},
		{"C not taken", 0xDC, 0xD8, 0, false, 12, 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			helper := NewCPUTestHelper()
			helper.CPU.SP = 0xD000
			helper.CPU.setF(test.flags)
			helper.LoadProgram(test.call, 0x00, 0xC1, test.ret) // CALLcc C100; RETcc
			helper.Memory.SetBytes(0xC100, test.ret)

			if cycles := helper.CPU.Step(); cycles != test.callCycles {
				t.Errorf("CALL: expected %d cycles, got %d", test.callCycles, cycles)
			}

			if !test.taken {
				if helper.CPU.PC != 0xC003 || helper.CPU.SP != 0xD000 {
					t.Fatalf("CALL not taken: PC=0x%04X SP=0x%04X", helper.CPU.PC, helper.CPU.SP)
				}
				if cycles := helper.CPU.Step(); cycles != test.retCycles {
					t.Errorf("RET: expected %d cycles, got %d", test.retCycles, cycles)
				}
				if helper.CPU.PC != 0xC004 || helper.CPU.SP != 0xD000 {
					t.Errorf("RET not taken: PC=0x%04X SP=0x%04X", helper.CPU.PC, helper.CPU.SP)
				}
				return
			}

			if helper.CPU.PC != 0xC100 || helper.CPU.SP != 0xCFFE {
				t.Fatalf("CALL taken: PC=0x%04X SP=0x%04X", helper.CPU.PC, helper.CPU.SP)
			}
			if cycles := helper.CPU.Step(); cycles != test.retCycles {
				t.Errorf("RET: expected %d cycles, got %d", test.retCycles, cycles)
			}
			// Return lands after the three-byte CALL
			if helper.CPU.PC != 0xC003 || helper.CPU.SP != 0xD000 {
				t.Errorf("RET taken: PC=0x%04X SP=0x%04X", helper.CPU.PC, helper.CPU.SP)
			}
		})
	}
}

// TestCBTiming checks the prefixed table costs including the prefix
func TestCBTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		{Name: "RLC B", Program: []uint8{0xCB, 0x00}, ExpectedCycles: 8, ExpectedPC: 0xC002},
		{Name: "RLC (HL)", Program: []uint8{0xCB, 0x06}, ExpectedCycles: 16},
		{Name: "BIT 0,B", Program: []uint8{0xCB, 0x40}, ExpectedCycles: 8},
		{Name: "BIT 0,(HL)", Program: []uint8{0xCB, 0x46}, ExpectedCycles: 12},
		{Name: "RES 0,(HL)", Program: []uint8{0xCB, 0x86}, ExpectedCycles: 16},
		{Name: "SET 7,(HL)", Program: []uint8{0xCB, 0xFE}, ExpectedCycles: 16},
		{Name: "SWAP A", Program: []uint8{0xCB, 0x37}, ExpectedCycles: 8},
	})
}

func TestCycleCounterAccumulates(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.LoadProgram(
		0x00,       // NOP           4
		0x3E, 0x10, // LD A,10      8
		0xEA, 0x00, 0xD0, // LD (D000),A 16
		0xCB, 0x37, // SWAP A             8
	)

	total := helper.StepN(4)

	if total != 36 {
		t.Errorf("Expected 36 cycles, got %d", total)
	}
	if helper.CPU.GetCycleCount() != 36 {
		t.Errorf("Expected cycle counter 36, got %d", helper.CPU.GetCycleCount())
	}
	helper.AssertMemory(t, "LD (a16),A", 0xD000, 0x10)
	if helper.CPU.A != 0x01 {
		t.Errorf("Expected SWAP to leave A=0x01, got 0x%02X", helper.CPU.A)
	}
}

package oracle

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

const Arm64asmName = "arm64asm"

func init() {
	Register(Arm64asmName, func() (Oracle, error) { return Arm64asm{}, nil })
}

// Arm64asm decodes with golang.org/x/arch. It is stateless.
type Arm64asm struct{}

func (Arm64asm) Name() string { return Arm64asmName }

func (Arm64asm) decode(word uint32) (arm64asm.Inst, error) {
	b := Bytes(word)
	return arm64asm.Decode(b[:])
}

// Valid reports whether the four bytes decode to one instruction with a
// known opcode.
func (a Arm64asm) Valid(word uint32) bool {
	inst, err := a.decode(word)
	return err == nil && inst.Op != 0
}

func (a Arm64asm) Disasm(word uint32) (string, error) {
	inst, err := a.decode(word)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(arm64asm.GNUSyntax(inst)), nil
}

// GoSyntax renders word in Go assembler syntax at pc.
func (a Arm64asm) GoSyntax(word uint32, pc uint64) (string, error) {
	inst, err := a.decode(word)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(arm64asm.GoSyntax(inst, pc, nil, nil)), nil
}

func (Arm64asm) Close() error { return nil }

//go:build unicorn
// +build unicorn

package oracle

import (
	"fmt"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

const UnicornName = "unicorn"

const (
	codeBase = uint64(0x10000)
	pageSize = uint64(0x1000)
)

func init() {
	Register(UnicornName, func() (Oracle, error) { return NewUnicorn() })
}

// Unicorn executes the word as the only instruction of an otherwise empty
// AArch64 machine. Anything except an invalid-instruction fault counts as a
// decode: memory faults and exceptions come from executing a real instruction.
type Unicorn struct {
	mu  uc.Unicorn
	asm Arm64asm
}

func NewUnicorn() (*Unicorn, error) {
	mu, err := uc.NewUnicorn(uc.ARCH_ARM64, uc.MODE_ARM)
	if err != nil {
		return nil, fmt.Errorf("create unicorn: %w", err)
	}
	if err := mu.MemMap(codeBase, pageSize); err != nil {
		mu.Close()
		return nil, fmt.Errorf("map code page: %w", err)
	}
	return &Unicorn{mu: mu}, nil
}

func (u *Unicorn) Name() string { return UnicornName }

func (u *Unicorn) step(word uint32) error {
	b := Bytes(word)
	if err := u.mu.MemWrite(codeBase, b[:]); err != nil {
		return err
	}
	return u.mu.StartWithOptions(codeBase, codeBase+4, &uc.UcOptions{Count: 1})
}

func (u *Unicorn) Valid(word uint32) bool {
	err := u.step(word)
	if ucErr, ok := err.(uc.UcError); ok && ucErr == uc.ERR_INSN_INVALID {
		return false
	}
	return true
}

// Disasm executes the word and renders it with arm64asm when the engine accepts it.
func (u *Unicorn) Disasm(word uint32) (string, error) {
	if !u.Valid(word) {
		return "", fmt.Errorf("unicorn: invalid instruction 0x%08x", word)
	}
	s, err := u.asm.Disasm(word)
	if err != nil {
		return fmt.Sprintf(".inst 0x%08x", word), nil
	}
	return s, nil
}

func (u *Unicorn) Close() error {
	return u.mu.Close()
}

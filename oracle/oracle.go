// Package oracle adapts disassemblers to a single question: is this 32-bit
// word exactly one valid AArch64 instruction?
package oracle

import (
	"fmt"
	"sync"

	"github.com/colorfulnotion/a64map/scanerrors"
	"golang.org/x/exp/slices"
)

// Oracle classifies instruction words. An Oracle is used by one goroutine at
// a time; parallel scans open one per worker through a Factory.
type Oracle interface {
	Name() string
	// Valid reports whether word decodes as exactly one instruction.
	Valid(word uint32) bool
	// Disasm renders word, or returns the decoder's error.
	Disasm(word uint32) (string, error)
	Close() error
}

// Factory opens a new Oracle.
type Factory func() (Oracle, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a factory available under name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q (have %v): %w", name, namesLocked(), scanerrors.ErrOUnknownOracle)
	}
	return f, nil
}

// New opens the oracle registered under name.
func New(name string) (Oracle, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	o, err := f()
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, scanerrors.ErrOOracleInit)
	}
	return o, nil
}

// Names lists the registered oracles.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Bytes returns word in instruction-stream (little-endian) order.
func Bytes(word uint32) [4]byte {
	return [4]byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
}

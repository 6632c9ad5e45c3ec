// Package repl is an interactive explorer: a JavaScript console in which
// instruction words can be decoded, checked against the oracle, and looked up
// in a cell file and its records.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/common"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/oracle"
	"github.com/dop251/goja"
)

var errNoCells = errors.New("no cell file loaded")

const helpText = `decode(w)   disassemble w
valid(w)    oracle verdict for w
cell(w)     raw cell value for w
record(w)   record stored in the cell for w, or null
match(w)    first record whose diagram accepts w, or null
print(...)  print values
words may be numbers or strings such as "0xd503201f"`

// Explorer evaluates console input. Cells and records are optional.
type Explorer struct {
	vm      *goja.Runtime
	oracle  oracle.Oracle
	cells   *cells.File
	records []mra.Record
	out     io.Writer
}

func New(o oracle.Oracle, cf *cells.File, records []mra.Record, out io.Writer) (*Explorer, error) {
	e := &Explorer{vm: goja.New(), oracle: o, cells: cf, records: records, out: out}
	bindings := map[string]interface{}{
		"decode": e.decode,
		"valid":  e.valid,
		"cell":   e.cell,
		"record": e.record,
		"match":  e.match,
		"help":   func() string { return helpText },
		"print": func(args ...goja.Value) {
			for _, arg := range args {
				fmt.Fprintln(e.out, arg.Export())
			}
		},
	}
	for name, fn := range bindings {
		if err := e.vm.Set(name, fn); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return e, nil
}

// Eval runs one line of JavaScript.
func (e *Explorer) Eval(src string) (goja.Value, error) {
	return e.vm.RunString(src)
}

func (e *Explorer) word(v goja.Value) (uint32, error) {
	switch x := v.Export().(type) {
	case string:
		return common.ParseWord(x)
	case int64:
		if x < 0 || x > 0xffffffff {
			return 0, fmt.Errorf("word %d out of range", x)
		}
		return uint32(x), nil
	case float64:
		if x < 0 || x > 0xffffffff || x != float64(uint32(x)) {
			return 0, fmt.Errorf("word %v is not a 32-bit integer", x)
		}
		return uint32(x), nil
	default:
		return 0, fmt.Errorf("word %v: want a number or string", v)
	}
}

func (e *Explorer) decode(v goja.Value) (string, error) {
	w, err := e.word(v)
	if err != nil {
		return "", err
	}
	return e.oracle.Disasm(w)
}

func (e *Explorer) valid(v goja.Value) (bool, error) {
	w, err := e.word(v)
	if err != nil {
		return false, err
	}
	return e.oracle.Valid(w), nil
}

func (e *Explorer) cell(v goja.Value) (int, error) {
	w, err := e.word(v)
	if err != nil {
		return 0, err
	}
	if e.cells == nil {
		return 0, errNoCells
	}
	c, err := e.cells.Lookup(uint64(w))
	return int(c), err
}

func (e *Explorer) record(v goja.Value) (interface{}, error) {
	c, err := e.cell(v)
	if err != nil {
		return nil, err
	}
	if int16(c) == cells.Invalid {
		return nil, nil
	}
	r, err := mra.Lookup(e.records, int16(c))
	if err != nil {
		return nil, err
	}
	return recordObject(c, r), nil
}

func (e *Explorer) match(v goja.Value) (interface{}, error) {
	w, err := e.word(v)
	if err != nil {
		return nil, err
	}
	j := mra.Match(e.records, w)
	if j < 0 {
		return nil, nil
	}
	return recordObject(int(j), e.records[j]), nil
}

func recordObject(index int, r mra.Record) map[string]interface{} {
	return map[string]interface{}{
		"index":    index,
		"file":     r.File,
		"name":     r.Name,
		"iclass":   r.IClass,
		"class":    r.InstrClass,
		"variants": r.Variants,
		"diagram":  r.RegDiagram,
	}
}

// LineReader is the part of readline.Instance the loop uses.
type LineReader interface {
	Readline() (string, error)
}

// Loop evaluates lines until "exit" or end of input.
func (e *Explorer) Loop(rl LineReader) {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return
		}
		value, err := e.Eval(line)
		if err != nil {
			fmt.Fprintln(e.out, common.Colorize(common.ColorRed, err.Error(), false))
			log.Debug(log.ReplMonitoring, "eval failed", "line", line, "err", err)
			continue
		}
		if value != nil && !goja.IsUndefined(value) {
			fmt.Fprintln(e.out, value.Export())
		}
	}
}

// Run starts an interactive session on the terminal.
func (e *Explorer) Run(prompt, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()
	fmt.Fprintln(e.out, "a64map explorer; help() lists functions, exit quits")
	e.Loop(rl)
	return nil
}

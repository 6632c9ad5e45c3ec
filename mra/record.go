package mra

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/scanerrors"
	"golang.org/x/exp/slices"
)

// Record is one iclass of one instruction file. A cell file written by gen
// stores the index of the first Record whose Pattern accepts the encoding.
type Record struct {
	File       string
	Name       string
	IClass     string
	Path       string
	Variants   string
	Features   string
	InstrClass string
	RegDiagram string
	Pattern    *Pattern `json:",omitempty"`
}

// ClassID returns the numeric class of the record.
func (r Record) ClassID() uint8 {
	return ClassToID(r.InstrClass)
}

// Matches reports whether word is an encoding of this record. Records whose
// diagram could not be compiled never match.
func (r Record) Matches(word uint32) bool {
	return r.Pattern != nil && r.Pattern.Matches(word)
}

// NewRecords builds one Record per iclass of insn.
func NewRecords(file string, insn InsnSection) []Record {
	var records []Record
	for _, c := range insn.Classes.IClass {
		set := make(map[string]bool)
		for _, e := range c.Encodings {
			set[e.Docs.Mnemonic()] = true
		}
		rec := Record{
			File:       file,
			Name:       strings.Join(sortedKeys(set), ";"),
			IClass:     c.Id,
			Path:       c.RegDiagram.Name,
			Variants:   strings.Join(c.ArchVariants.GetVariants(), ";"),
			Features:   strings.Join(c.ArchVariants.GetFeatures(), ";"),
			InstrClass: c.Docs.InstrClass(),
			RegDiagram: c.RegDiagram.String(),
		}
		if rec.InstrClass == "" {
			rec.InstrClass = insn.Docs.InstrClass()
		}
		if p, err := c.RegDiagram.Pattern(); err != nil {
			log.Warn(log.MraMonitoring, "diagram not compiled", "file", file, "iclass", c.Id, "err", err)
		} else {
			rec.Pattern = &p
		}
		records = append(records, rec)
	}
	return records
}

// Lookup returns the record for a cell value.
func Lookup(records []Record, cell int16) (Record, error) {
	if cell < 0 || int(cell) >= len(records) {
		return Record{}, fmt.Errorf("cell value %d with %d records: %w", cell, len(records), scanerrors.ErrRBadRecordIndex)
	}
	return records[cell], nil
}

// Match returns the index of the first record accepting word, or -1.
func Match(records []Record, word uint32) int16 {
	for j := range records {
		if records[j].Matches(word) {
			return int16(j)
		}
	}
	return -1
}

// SortRecords orders records by file then iclass so repeated classify runs
// produce identical indices.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		return strings.Compare(a.IClass, b.IClass)
	})
}

func WriteRecords(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadRecords reads a records JSON file. An empty list is an error because no
// cell could refer to it.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, scanerrors.ErrRRecordsMissing)
		}
		return nil, err
	}
	defer f.Close()
	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, scanerrors.ErrRRecordsMissing)
	}
	if len(records) > 1<<15-1 {
		return nil, fmt.Errorf("%s holds %d records, cells address at most %d", path, len(records), 1<<15-1)
	}
	return records, nil
}

func SaveRecords(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package mra

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/colorfulnotion/a64map/log"
)

// Filter selects which instruction sections Classify keeps.
type Filter struct {
	// Base keeps only ARMv8.0 instructions.
	Base bool
	// Classes keeps sections having any of these classes; "all" or empty keeps every class.
	Classes []string
	// Variant keeps sections available at or before this ISA version.
	Variant string
}

func (f Filter) Keep(is InsnSection) bool {
	if is.Type != "instruction" {
		return false
	}
	if f.Base && !is.BaseVariant() {
		return false
	}
	if len(f.Classes) > 0 {
		hasclass := false
		for _, class := range f.Classes {
			if is.HasClass(strings.TrimSpace(class)) {
				hasclass = true
				break
			}
		}
		if !hasclass {
			return false
		}
	}
	if f.Variant != "" && !is.VariantLE(f.Variant) {
		return false
	}
	return true
}

// Classify walks dir for instruction XML files and returns the records of
// the sections the filter keeps, sorted by file and iclass. Files that are
// not instruction sections are skipped.
func Classify(dir string, filter Filter) ([]Record, error) {
	var records []Record
	skipped := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".xml") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		is, err := ParseSection(data)
		if err != nil {
			skipped++
			log.Debug(log.MraMonitoring, "not an instruction section", "path", path, "err", err)
			return nil
		}
		if filter.Keep(is) {
			records = append(records, NewRecords(filepath.Base(path), is)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	log.Info(log.MraMonitoring, "classified", "dir", dir, "records", len(records), "skipped", skipped)
	return records, nil
}

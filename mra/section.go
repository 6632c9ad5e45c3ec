package mra

import (
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

// Pseudocode helpers that identify an instruction's effects.
const (
	psReadX     = "impl-aarch64.X.read.2"
	psWriteX    = "impl-aarch64.X.write.2"
	psReadPC    = "impl-aarch64.PC.read.0"
	psReadMem   = "impl-aarch64.Mem.read.3"
	psWriteMem  = "impl-aarch64.Mem.write.3"
	psMemAtomic = "impl-aarch64.MemAtomic.4"
	psBranchTo  = "impl-shared.BranchTo.3"
)

var linkrx = regexp.MustCompile(`<a.*?>`)

func (is InsnSection) lines() []string {
	return strings.Split(is.Code.Ps.PsText.Content, "\n")
}

func stripLinks(l string) string {
	l = strings.ReplaceAll(l, "</a>", "")
	return linkrx.ReplaceAllLiteralString(l, "")
}

// ReadSet returns the expressions read through X[] in the pseudocode.
func (is InsnSection) ReadSet() []string {
	var set []string
	for _, l := range is.lines() {
		if !strings.Contains(l, psReadX) {
			continue
		}
		if _, after, found := strings.Cut(stripLinks(l), "="); found {
			set = append(set, strings.TrimSpace(after))
		}
	}
	return set
}

// WriteSet returns the distinct X[] destinations assigned in the pseudocode, sorted.
func (is InsnSection) WriteSet() []string {
	set := make(map[string]bool)
	for _, l := range is.lines() {
		if !strings.Contains(l, psWriteX) {
			continue
		}
		if before, _, found := strings.Cut(stripLinks(l), "="); found {
			set[strings.TrimSpace(before)] = true
		}
	}
	return sortedKeys(set)
}

func (is InsnSection) Uses(op string) bool {
	for _, l := range is.lines() {
		if strings.Contains(l, op) {
			return true
		}
	}
	return false
}

func (is InsnSection) UsesPc() bool    { return is.Uses(psReadPC) }
func (is InsnSection) ReadsMem() bool  { return is.Uses(psReadMem) }
func (is InsnSection) WritesMem() bool { return is.Uses(psWriteMem) }
func (is InsnSection) MemAtomic() bool { return is.Uses(psMemAtomic) }
func (is InsnSection) IsBranch() bool  { return is.Uses(psBranchTo) }

// BaseVariant reports whether no iclass requires an architecture extension.
func (is InsnSection) BaseVariant() bool {
	for _, c := range is.Classes.IClass {
		if len(c.ArchVariants.Variants) != 0 {
			return false
		}
	}
	return true
}

func (is InsnSection) Variant(version string) bool {
	for _, c := range is.Classes.IClass {
		for _, v := range c.ArchVariants.Variants {
			if v.Name == version {
				return true
			}
		}
	}
	return false
}

// VariantLE reports whether some iclass is available at or before version.
// Versions compare as strings ("ARMv8.2" < "ARMv8.4").
func (is InsnSection) VariantLE(version string) bool {
	for _, c := range is.Classes.IClass {
		if len(c.ArchVariants.Variants) == 0 {
			return true
		}
		for _, v := range c.ArchVariants.Variants {
			if strings.Compare(v.Name, version) <= 0 {
				return true
			}
		}
	}
	return false
}

func (is InsnSection) HasClass(class string) bool {
	if class == "all" {
		return true
	}
	for _, c := range is.Classes.IClass {
		if c.Docs.InstrClass() == class {
			return true
		}
	}
	return is.Docs.InstrClass() != "" && is.Docs.InstrClass() == class
}

func (is InsnSection) GetClasses() []string {
	m := make(map[string]bool)
	for _, c := range is.Classes.IClass {
		if c.Docs.InstrClass() != "" {
			m[c.Docs.InstrClass()] = true
		}
	}
	if is.Docs.InstrClass() != "" {
		m[is.Docs.InstrClass()] = true
	}
	return sortedKeys(m)
}

func (is InsnSection) BaseArch() bool {
	if !strings.Contains(InstrBase, is.Docs.InstrClass()) {
		return false
	}
	return is.BaseVariant()
}

func (is InsnSection) MatchesArch(name string, feature string) bool {
	for _, c := range is.Classes.IClass {
		for _, v := range c.ArchVariants.Variants {
			if strings.Contains(v.Name, name) && strings.Contains(v.Feature, feature) {
				return true
			}
		}
	}
	return false
}

// Names returns the distinct mnemonics of every encoding, sorted.
func (is InsnSection) Names() []string {
	set := make(map[string]bool)
	for _, c := range is.Classes.IClass {
		for _, e := range c.Encodings {
			set[e.Docs.Mnemonic()] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

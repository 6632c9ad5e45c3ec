package mra

import "strings"

// Instruction classes as named by the instr-class docvar.
const (
	InstrGeneral   = "general"
	InstrSystem    = "system"
	InstrFloat     = "float"
	InstrFpSimd    = "fpsimd"
	InstrAdvSimd   = "advsimd"
	InstrSve       = "sve"
	InstrSve2      = "sve2"
	InstrMortlach  = "mortlach"
	InstrMortlach2 = "mortlach2"
)

const (
	InstrGeneralID uint8 = iota
	InstrSystemID
	InstrFloatID
	InstrFpSimdID
	InstrAdvSimdID
	InstrSveID
	InstrSve2ID
	InstrMortlachID
	InstrMortlach2ID
	InstrNumIDs // unknown class
)

var classNames = [InstrNumIDs + 1]string{
	InstrGeneral, InstrSystem, InstrFloat, InstrFpSimd, InstrAdvSimd,
	InstrSve, InstrSve2, InstrMortlach, InstrMortlach2, "unknown",
}

func ClassToID(class string) uint8 {
	for id, name := range classNames[:InstrNumIDs] {
		if name == class {
			return uint8(id)
		}
	}
	return InstrNumIDs
}

func IDToClass(id uint8) string {
	if id > InstrNumIDs {
		id = InstrNumIDs
	}
	return classNames[id]
}

// InstrBase lists the classes of the ARMv8.0 base instruction set.
var InstrBase = strings.Join([]string{
	InstrGeneral,
	InstrFloat,
	InstrFpSimd,
	InstrAdvSimd,
}, ",")

package scanerrors

import (
	"errors"
	"strings"
)

// Cell file (C) Errors
var (
	ErrCCellFileSize    = errors.New("C1|CellFileSize: Cell file size does not match the expected cell count.")
	ErrCCellFileMissing = errors.New("C2|CellFileMissing: Cell file does not exist; create it before scanning.")
	ErrCBigEndianHost   = errors.New("C3|BigEndianHost: Cell files are little-endian and cannot be mapped on this host.")
	ErrCCellIndexRange  = errors.New("C4|CellIndexRange: Cell index is outside the mapped file.")
	ErrCReadOnly        = errors.New("C5|ReadOnly: Cell file is mapped read-only.")
)

// Oracle (O) Errors
var (
	ErrOUnknownOracle = errors.New("O1|UnknownOracle: No disassembler registered under this name.")
	ErrOOracleInit    = errors.New("O2|OracleInit: Disassembler context could not be opened.")
)

// Record (R) Errors
var (
	ErrRBadRecordIndex = errors.New("R1|BadRecordIndex: Cell refers to a record index outside the records file.")
	ErrRRecordsMissing = errors.New("R2|RecordsMissing: Records file is empty or missing.")
	ErrRNotGenerated   = errors.New("R3|NotGenerated: Cell values do not match the records file; run gen with it first.")
)

// Sweep (S) Errors
var (
	ErrSBadRange    = errors.New("S1|BadRange: Scan range is empty or exceeds the encoding space.")
	ErrSInterrupted = errors.New("S2|Interrupted: Scan interrupted before every chunk completed.")
)

// Map / Vis (M, V) Errors
var (
	ErrMBadMapLine   = errors.New("M1|BadMapLine: Map line is malformed.")
	ErrVUnknownTheme = errors.New("V1|UnknownTheme: Color theme does not exist.")
)

var all = []error{
	ErrCCellFileSize, ErrCCellFileMissing, ErrCBigEndianHost, ErrCCellIndexRange, ErrCReadOnly,
	ErrOUnknownOracle, ErrOOracleInit,
	ErrRBadRecordIndex, ErrRRecordsMissing, ErrRNotGenerated,
	ErrSBadRange, ErrSInterrupted,
	ErrMBadMapLine, ErrVUnknownTheme,
}

// GetErrorCode returns the code of the first sentinel wrapped by err, or "".
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range all {
		if errors.Is(err, s) {
			code, _, _ := strings.Cut(s.Error(), "|")
			return code
		}
	}
	return ""
}

// GetErrorName extracts the error name from the sentinel wrapped by err.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	for _, s := range all {
		if errors.Is(err, s) {
			_, rest, _ := strings.Cut(s.Error(), "|")
			name, _, _ := strings.Cut(rest, ":")
			return strings.TrimSpace(name)
		}
	}
	return err.Error()
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	if code == "" {
		return ""
	}
	return code + "_" + GetErrorName(err)
}

// Package blockmap summarises a cell file as one line per block of 256
// encodings:
//
//	<first encoding> <class>:<subclass>:<count> ...
//
// counting the valid cells of each instruction class. Blocks with no valid
// cell are omitted.
package blockmap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/colorfulnotion/a64map/sweep"
)

const (
	BlockSize  = 256
	NumClasses = mra.InstrNumIDs + 1
)

// Count is the number of valid encodings of one class within a block.
type Count struct {
	Class    uint8
	Subclass uint8
	N        uint32
}

type Line struct {
	Start  uint32
	Counts []Count
}

func (l Line) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(l.Start), 10))
	for _, c := range l.Counts {
		fmt.Fprintf(&sb, " %d:%d:%d", c.Class, c.Subclass, c.N)
	}
	return sb.String()
}

// Dominant returns the class with the most encodings in the block; ties go to
// the lower class id.
func (l Line) Dominant() Count {
	var best Count
	for _, c := range l.Counts {
		if c.N > best.N {
			best = c
		}
	}
	return best
}

// Total is the number of valid encodings in the block.
func (l Line) Total() uint32 {
	var n uint32
	for _, c := range l.Counts {
		n += c.N
	}
	return n
}

// ParseLine reads a line written by Line.String. Trailing spaces are accepted.
func ParseLine(s string) (Line, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Line{}, fmt.Errorf("empty line: %w", scanerrors.ErrMBadMapLine)
	}
	start, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return Line{}, fmt.Errorf("start %q: %w", fields[0], scanerrors.ErrMBadMapLine)
	}
	l := Line{Start: uint32(start), Counts: make([]Count, 0, len(fields)-1)}
	for _, f := range fields[1:] {
		parts := strings.Split(f, ":")
		if len(parts) != 3 {
			return Line{}, fmt.Errorf("count %q: %w", f, scanerrors.ErrMBadMapLine)
		}
		var vals [3]uint64
		for i, p := range parts {
			if vals[i], err = strconv.ParseUint(p, 10, 32); err != nil {
				return Line{}, fmt.Errorf("count %q: %w", f, scanerrors.ErrMBadMapLine)
			}
		}
		if vals[0] >= uint64(NumClasses) || vals[1] >= uint64(NumClasses) || vals[2] > BlockSize {
			return Line{}, fmt.Errorf("count %q out of range: %w", f, scanerrors.ErrMBadMapLine)
		}
		l.Counts = append(l.Counts, Count{Class: uint8(vals[0]), Subclass: uint8(vals[1]), N: uint32(vals[2])})
	}
	return l, nil
}

// Read parses every line of r.
func Read(r io.Reader) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		l, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, l)
	}
	return lines, sc.Err()
}

// Totals counts valid encodings per class.
type Totals [NumClasses]uint64

func (t *Totals) Add(l Line) {
	for _, c := range l.Counts {
		t[c.Class] += uint64(c.N)
	}
}

func (t Totals) Sum() uint64 {
	var n uint64
	for _, v := range t {
		n += v
	}
	return n
}

func Sum(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Add(l)
	}
	return t
}

// Block builds the line for the block starting at start. ok is false when the
// block has no valid cell.
func Block(block []int16, start uint32, classOf []uint8) (Line, bool, error) {
	var counts [NumClasses]uint32
	seen := false
	for j, v := range block {
		if v == cells.Invalid {
			continue
		}
		if v < 0 || int(v) >= len(classOf) {
			return Line{}, false, fmt.Errorf("cell %#x holds %d with %d records: %w",
				uint64(start)+uint64(j), v, len(classOf), scanerrors.ErrRBadRecordIndex)
		}
		counts[classOf[v]]++
		seen = true
	}
	if !seen {
		return Line{}, false, nil
	}
	l := Line{Start: start}
	for c, n := range counts {
		if n != 0 {
			l.Counts = append(l.Counts, Count{Class: uint8(c), Subclass: uint8(c), N: n})
		}
	}
	return l, true, nil
}

// Check samples the first valid cell of every block and fails when its record
// does not accept the cell's encoding. That happens when cf was never filled
// by gen (a created file holds 0 everywhere) or was generated from other records.
func Check(ctx context.Context, cf *cells.File, records []mra.Record) error {
	var sampled, bad uint64
	var first uint64
	for lo := uint64(0); lo < cf.Len(); lo += BlockSize {
		if lo%(1<<20) == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		span := cf.Span(lo, min(lo+BlockSize, cf.Len()))
		for j, v := range span {
			if v < 0 {
				continue
			}
			word := lo + uint64(j)
			sampled++
			if int(v) >= len(records) || !records[v].Matches(uint32(word)) {
				if bad == 0 {
					first = word
				}
				bad++
			}
			break
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d sampled cells disagree with their record, first at 0x%08x: %w",
			bad, sampled, first, scanerrors.ErrRNotGenerated)
	}
	log.Debug(log.BlockMapMonitoring, "cells agree with records", "sampled", sampled)
	return nil
}

type Options struct {
	ProgressEvery uint64
	Progress      sweep.ProgressFunc
}

// Map writes the map of cf to w. Cell values index records.
func Map(ctx context.Context, cf *cells.File, records []mra.Record, w io.Writer, opts Options) (Totals, error) {
	var totals Totals
	classOf := make([]uint8, len(records))
	for i, r := range records {
		classOf[i] = r.ClassID()
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	meter := sweep.NewMeter(cf.Len(), opts.ProgressEvery, opts.Progress)
	written := 0
	for lo := uint64(0); lo < cf.Len(); lo += BlockSize {
		if lo%(1<<20) == 0 {
			if err := ctx.Err(); err != nil {
				return totals, fmt.Errorf("map at %#x: %w", lo, err)
			}
		}
		hi := min(lo+BlockSize, cf.Len())
		l, ok, err := Block(cf.Span(lo, hi), uint32(lo), classOf)
		if err != nil {
			return totals, err
		}
		meter.Add(hi - lo)
		if !ok {
			continue
		}
		totals.Add(l)
		written++
		if _, err := bw.WriteString(l.String() + "\n"); err != nil {
			return totals, err
		}
	}
	if err := bw.Flush(); err != nil {
		return totals, err
	}
	log.Info(log.BlockMapMonitoring, "map written", "blocks", written, "valid", totals.Sum())
	return totals, nil
}

// Package cells maps a cell file: one signed 16-bit cell per 32-bit AArch64
// encoding. A cell holding Invalid marks the encoding as rejected by the
// disassembler; any other value is a record index or an unexamined cell.
package cells

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/scanerrors"
	"golang.org/x/sys/unix"
)

const (
	CellSize           = 2               // bytes per cell
	DefaultCells       = uint64(1) << 32 // one cell per 32-bit encoding
	Invalid      int16 = -1              // all bits set: confirmed invalid
)

// Options controls how a cell file is mapped.
type Options struct {
	ReadOnly bool
	// Cells is the expected number of cells. Zero means DefaultCells.
	Cells uint64
}

// File is a cell file mapped MAP_SHARED into memory.
type File struct {
	path     string
	id       string
	f        *os.File
	mem      []byte
	cells    []int16
	readOnly bool
}

func hostLittleEndian() bool {
	return binary.NativeEndian.Uint16([]byte{1, 0}) == 1
}

// Create creates (or truncates) path to hold n cells. The file is sparse, so
// every cell reads as 0.
func Create(path string, n uint64) error {
	if n == 0 {
		n = DefaultCells
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := f.Truncate(int64(n * CellSize)); err != nil {
		return fmt.Errorf("truncate %s: %w", path, err)
	}
	log.Info(log.CellsMonitoring, "created cell file", "path", path, "cells", n)
	return nil
}

// Open maps an existing cell file. The file must hold exactly opts.Cells cells.
func Open(path string, opts Options) (*File, error) {
	if !hostLittleEndian() {
		return nil, scanerrors.ErrCBigEndianHost
	}
	n := opts.Cells
	if n == 0 {
		n = DefaultCells
	}
	size := n * CellSize
	if size > math.MaxInt {
		return nil, fmt.Errorf("%s: %d cells do not fit the address space: %w", path, n, scanerrors.ErrCCellFileSize)
	}

	flag := os.O_RDWR
	prot := unix.PROT_READ | unix.PROT_WRITE
	if opts.ReadOnly {
		flag = os.O_RDONLY
		prot = unix.PROT_READ
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, scanerrors.ErrCCellFileMissing)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if uint64(st.Size()) != size {
		f.Close()
		return nil, fmt.Errorf("%s is %d bytes, want %d: %w", path, st.Size(), size, scanerrors.ErrCCellFileSize)
	}

	var ust unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &ust); err != nil {
		f.Close()
		return nil, fmt.Errorf("fstat %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	if err := unix.Madvise(mem, unix.MADV_SEQUENTIAL); err != nil {
		log.Warn(log.CellsMonitoring, "madvise failed", "path", path, "err", err)
	}
	log.Debug(log.CellsMonitoring, "mapped cell file", "path", path, "cells", n, "readOnly", opts.ReadOnly)

	return &File{
		path:     path,
		id:       fmt.Sprintf("%s|cells=%d|dev=%d|ino=%d", abs, n, ust.Dev, ust.Ino),
		f:        f,
		mem:      mem,
		cells:    unsafe.Slice((*int16)(unsafe.Pointer(&mem[0])), n),
		readOnly: opts.ReadOnly,
	}, nil
}

func (c *File) Path() string { return c.path }

// ID identifies the mapped file by absolute path, cell count and inode.
// Checkpoints are bound to it.
func (c *File) ID() string { return c.id }

// Len returns the number of cells.
func (c *File) Len() uint64 { return uint64(len(c.cells)) }

func (c *File) ReadOnly() bool { return c.readOnly }

// Get returns cell i. i must be below Len.
func (c *File) Get(i uint64) int16 {
	return c.cells[i]
}

// Lookup is Get with a range check.
func (c *File) Lookup(i uint64) (int16, error) {
	if i >= uint64(len(c.cells)) {
		return 0, fmt.Errorf("cell %#x: %w", i, scanerrors.ErrCCellIndexRange)
	}
	return c.cells[i], nil
}

// Invalid reports whether cell i holds the Invalid sentinel.
func (c *File) Invalid(i uint64) bool {
	return c.cells[i] == Invalid
}

func (c *File) Set(i uint64, v int16) error {
	if c.readOnly {
		return scanerrors.ErrCReadOnly
	}
	if i >= uint64(len(c.cells)) {
		return fmt.Errorf("cell %#x: %w", i, scanerrors.ErrCCellIndexRange)
	}
	c.cells[i] = v
	return nil
}

// MarkInvalid stores the Invalid sentinel in cell i.
func (c *File) MarkInvalid(i uint64) error {
	return c.Set(i, Invalid)
}

// Span returns cells [lo, hi) for bulk scans. Writes through the slice go
// straight to the file; callers must not write to a read-only mapping.
func (c *File) Span(lo, hi uint64) []int16 {
	return c.cells[lo:hi]
}

// Count returns the number of invalid and non-invalid cells in [lo, hi).
func (c *File) Count(lo, hi uint64) (invalid uint64, other uint64) {
	for _, v := range c.cells[lo:hi] {
		if v == Invalid {
			invalid++
		} else {
			other++
		}
	}
	return invalid, other
}

// Sync flushes dirty pages to the backing file.
func (c *File) Sync() error {
	if c.readOnly || c.mem == nil {
		return nil
	}
	if err := unix.Msync(c.mem, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync %s: %w", c.path, err)
	}
	return nil
}

// Close syncs, unmaps and closes the file.
func (c *File) Close() error {
	if c.mem == nil {
		return nil
	}
	syncErr := c.Sync()
	err := unix.Munmap(c.mem)
	c.mem = nil
	c.cells = nil
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = syncErr
	}
	return err
}

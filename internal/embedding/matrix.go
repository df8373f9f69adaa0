// Package embedding loads soft-prompt weights and per-model embedding
// spaces from disk. Matrices use a small binary format (PSW) so the Python
// training side can export them without a tensor runtime on this side;
// files may be gzip-compressed.
package embedding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// pswMagic marks a serialized weight matrix. Layout after the magic:
// uint32 version, uint32 rows, uint32 cols, then rows*cols float32
// values in row-major order, all little-endian.
const (
	pswMagic   = "PSW1"
	gzipSuffix = ".gz"
)

// maxMatrixCells caps rows*cols on read so a corrupt header can't drive a
// multi-gigabyte allocation.
const maxMatrixCells = 1 << 28

// ReadMatrix reads a weight matrix from path, transparently decompressing
// when the file name ends in .gz.
func ReadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if strings.HasSuffix(path, gzipSuffix) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("embedding: %s: %w", path, err)
		}
		defer gz.Close() //nolint:errcheck
		r = gz
	}

	m, err := readMatrix(r)
	if err != nil {
		return nil, fmt.Errorf("embedding: %s: %w", path, err)
	}
	return m, nil
}

func readMatrix(r io.Reader) ([][]float64, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if string(magic) != pswMagic {
		return nil, fmt.Errorf("not a PSW matrix (magic %q)", magic)
	}

	var version, rows, cols uint32
	for _, v := range []*uint32{&version, &rows, &cols} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported PSW version %d", version)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty matrix (%dx%d)", rows, cols)
	}
	if uint64(rows)*uint64(cols) > maxMatrixCells {
		return nil, fmt.Errorf("matrix %dx%d exceeds size limit", rows, cols)
	}

	buf := make([]float32, rows*cols)
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return nil, fmt.Errorf("reading %dx%d values: %w", rows, cols, err)
	}

	out := make([][]float64, rows)
	for i := range out {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(buf[uint32(i)*cols+uint32(j)])
		}
		out[i] = row
	}
	return out, nil
}

// WriteMatrix writes a matrix to path in PSW format, gzip-compressing when
// the file name ends in .gz. All rows must have equal length.
func WriteMatrix(path string, m [][]float64) error {
	if len(m) == 0 || len(m[0]) == 0 {
		return fmt.Errorf("embedding: refusing to write an empty matrix")
	}
	cols := len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("embedding: row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, gzipSuffix) {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := writeMatrix(w, m, cols); err != nil {
		return fmt.Errorf("embedding: %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("embedding: %s: %w", path, err)
		}
	}
	return f.Close()
}

func writeMatrix(w io.Writer, m [][]float64, cols int) error {
	if _, err := w.Write([]byte(pswMagic)); err != nil {
		return err
	}
	for _, v := range []uint32{1, uint32(len(m)), uint32(cols)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	buf := make([]float32, 0, len(m)*cols)
	for _, row := range m {
		for _, v := range row {
			buf = append(buf, float32(v))
		}
	}
	return binary.Write(w, binary.LittleEndian, buf)
}

// CheckFinite rejects matrices carrying NaN or infinite values, which would
// silently poison every downstream distance computation.
func CheckFinite(m [][]float64) error {
	for i, row := range m {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("embedding: non-finite value at [%d][%d]", i, j)
			}
		}
	}
	return nil
}

package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Report file names inside the output directory.
const (
	ReportFile           = "report.json"
	CompressedReportFile = "report.json.zst"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// WriteJSON encodes v as indented JSON to w, zstd-compressed when compress
// is set.
func WriteJSON(w io.Writer, v any, compress bool) error {
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := WriteJSON(zw, v, false); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zstd flush: %w", err)
	}
	return nil
}

// ReadJSON decodes JSON from r into v, transparently decompressing zstd
// input.
func ReadJSON(r io.Reader, v any) error {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	if err := json.NewDecoder(src).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// WriteReportFile writes v into dir as report.json, or report.json.zst
// when compressed, replacing the other form. It returns the written path.
func WriteReportFile(dir string, v any, compress bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name, stale := ReportFile, CompressedReportFile
	if compress {
		name, stale = stale, name
	}
	p := filepath.Join(dir, name)

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := WriteJSON(f, v, compress); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	os.Remove(filepath.Join(dir, stale))
	return p, nil
}

// ReadReportFile loads the report saved in dir, compressed or not.
func ReadReportFile(dir string, v any) error {
	for _, name := range []string{ReportFile, CompressedReportFile} {
		f, err := os.Open(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("open report: %w", err)
		}
		defer f.Close()
		return ReadJSON(f, v)
	}
	return fmt.Errorf("no report in %s: %w", dir, os.ErrNotExist)
}

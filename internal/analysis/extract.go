package analysis

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"unicode/utf8"

	"github.com/dusk-indust/archmap/internal/graph"
	"github.com/dusk-indust/archmap/internal/source"
)

// extraction is the outcome of reading one file. record is nil when the
// file was skipped.
type extraction struct {
	record    *graph.FileRecord
	refs      []string
	diags     []Diagnostic
	goModule  string
	workspace *graph.WorkspaceManifest
}

var goModuleLine = regexp.MustCompile(`(?m)^\s*module\s+"?([^\s"]+)"?`)

// extract reads f within the byte ceiling and derives its record,
// references and any resolver metadata it declares.
func (p *Pipeline) extract(f source.File) extraction {
	var x extraction
	data, truncated, err := readBounded(f, p.opts.MaxFileBytes)
	if err != nil {
		x.diags = append(x.diags, Diagnostic{Path: f.Path, Kind: DiagUnreadable, Message: err.Error()})
		return x
	}
	if truncated {
		data = trimPartialRune(data)
	}
	if !decodable(data) {
		x.diags = append(x.diags, Diagnostic{Path: f.Path, Kind: DiagUndecodable, Message: "content is not UTF-8 text"})
		return x
	}
	if truncated {
		x.diags = append(x.diags, Diagnostic{
			Path:    f.Path,
			Kind:    DiagTruncated,
			Message: fmt.Sprintf("scanned the first %d bytes only", len(data)),
		})
	}

	lang := graph.DetectLanguage(f.Path)
	x.refs = graph.ExtractReferences(lang, data)
	record := graph.NewFileRecord(f.Path, max(f.Size, int64(len(data))), x.refs, p.counter.Count(lang, data))
	x.record = &record

	switch path.Base(f.Path) {
	case "go.mod":
		if m := goModuleLine.FindSubmatch(data); m != nil {
			x.goModule = string(m[1])
		}
	case "package.json":
		if m, ok := graph.ParseWorkspaceManifest(f.Path, data); ok {
			x.workspace = &m
		}
	}
	return x
}

// readBounded reads at most limit bytes of f and reports whether more
// were available.
func readBounded(f source.File, limit int64) ([]byte, bool, error) {
	if f.Open == nil {
		return nil, false, fmt.Errorf("no content available")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, false, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of a
// truncated buffer.
func trimPartialRune(data []byte) []byte {
	i := len(data) - 1
	for i > 0 && len(data)-i < utf8.UTFMax && !utf8.RuneStart(data[i]) {
		i--
	}
	if i >= 0 && !utf8.FullRune(data[i:]) {
		return data[:i]
	}
	return data
}

// decodable reports whether data reads as UTF-8 text.
func decodable(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}

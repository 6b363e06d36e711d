// Package dropzone turns paths offered by the user into PDF file handles.
package dropzone

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetdrop/internal/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/mattn/go-shellwords"
)

const AcceptedMIME = "application/pdf"

// Parse splits text pasted into the terminal into paths. Terminals paste
// dropped files as shell words, sometimes as file:// URIs.
func Parse(text string) ([]string, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if text == "" {
		return nil, nil
	}

	var words []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w, err := shellwords.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parsing dropped paths: %w", err)
		}
		words = append(words, w...)
	}

	paths := make([]string, 0, len(words))
	for _, w := range words {
		if strings.HasPrefix(w, "file://") {
			if u, err := url.Parse(w); err == nil {
				w = u.Path
			}
		}
		if w != "" {
			paths = append(paths, w)
		}
	}
	return paths, nil
}

// Collect reads each path and keeps only PDFs, in the order given.
// Everything else is returned as a rejection.
func Collect(paths []string) ([]types.SelectedFile, []types.Rejection) {
	var files []types.SelectedFile
	var rejected []types.Rejection

	for _, p := range paths {
		f, err := load(p)
		if err != nil {
			rejected = append(rejected, types.Rejection{Path: p, Reason: err.Error()})
			continue
		}
		files = append(files, f)
	}

	return files, rejected
}

func load(path string) (types.SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.SelectedFile{}, err
	}
	if !info.Mode().IsRegular() {
		return types.SelectedFile{}, fmt.Errorf("not a regular file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.SelectedFile{}, err
	}

	mt := mimetype.Detect(data)
	if !mt.Is(AcceptedMIME) {
		return types.SelectedFile{}, fmt.Errorf("unsupported type %s", mt.String())
	}

	return types.SelectedFile{
		Name:  filepath.Base(path),
		Path:  path,
		MIME:  AcceptedMIME,
		Data:  data,
		Pages: PageCount(data),
	}, nil
}

// PageCount returns the number of pages in data, or 0 when the document
// cannot be read. It never rejects a file.
func PageCount(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}

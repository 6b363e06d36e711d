// Package download saves converted spreadsheets where the user can find them.
package download

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFilename is the name every converted spreadsheet is saved under.
const DefaultFilename = "output.xlsx"

// Downloader hands a finished payload to the user under name and reports
// where it ended up.
type Downloader interface {
	Download(name string, data []byte) (string, error)
}

// FileDownloader writes payloads into Dir, replacing any previous file of
// the same name.
type FileDownloader struct {
	Dir string
}

func NewFileDownloader(dir string) *FileDownloader {
	if dir == "" {
		dir = "."
	}
	return &FileDownloader{Dir: dir}
}

// Download stages data in a temp file next to the target and renames it
// into place. The temp file is gone on return whatever the outcome.
func (d *FileDownloader) Download(name string, data []byte) (string, error) {
	if name == "" {
		name = DefaultFilename
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid download name %q", name)
	}

	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("staging download: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}

	target := filepath.Join(d.Dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("saving %s: %w", name, err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}
	return abs, nil
}

// Package logging builds the diagnostics logger. The terminal belongs to the
// UI, so log lines go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w, filtered at lvl.
func New(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(w)
	logger = log.NewSyncLogger(logger)
	logger = level.NewFilter(logger, allow(lvl))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

// Open appends to path and returns the logger plus a closer for the file.
// An empty path disables logging.
func Open(path, lvl string) (log.Logger, io.Closer, error) {
	if path == "" {
		return log.NewNopLogger(), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(f, lvl), f, nil
}

func allow(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/nconklindev/sheetdrop/internal/converter"
	"github.com/nconklindev/sheetdrop/internal/download"
	"github.com/nconklindev/sheetdrop/internal/types"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Converter sends the selected files to the conversion endpoint.
type Converter interface {
	Convert(ctx context.Context, files []types.SelectedFile) ([]byte, error)
}

// Submitter performs the network call and the download for one submission.
type Submitter struct {
	Converter  Converter
	Downloader download.Downloader
	Filename   string
	Logger     log.Logger
}

func NewSubmitter(c Converter, d download.Downloader, logger log.Logger) *Submitter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Submitter{
		Converter:  c,
		Downloader: d,
		Filename:   download.DefaultFilename,
		Logger:     logger,
	}
}

// Run submits files and returns the outcome as a Succeeded or Failed event.
// Causes of failure are logged, never surfaced in the event's message.
func (s *Submitter) Run(ctx context.Context, files []types.SelectedFile) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic handling response: %v", r)
			level.Error(s.Logger).Log("method", "Run", "err", err)
			ev = Failed{Err: err}
		}
	}()

	data, err := s.Converter.Convert(ctx, files)
	if err != nil {
		level.Error(s.Logger).Log("method", "Convert", "err", err, "files", len(files))
		return Failed{Err: err}
	}

	path, err := s.Downloader.Download(s.Filename, data)
	if err != nil {
		level.Error(s.Logger).Log("method", "Download", "err", err, "name", s.Filename)
		return Failed{Err: err}
	}

	result := &types.ConversionResult{OutputFile: path, Bytes: len(data)}
	if summary, err := converter.Summarize(data); err != nil {
		level.Warn(s.Logger).Log("method", "Summarize", "err", err, "path", path)
	} else {
		result.Workbook = summary
	}

	level.Info(s.Logger).Log("method", "Run", "msg", "spreadsheet saved", "path", path, "bytes", len(data))
	return Succeeded{Result: result}
}

// Controller owns the workflow state for callers outside the terminal UI.
type Controller struct {
	mu        sync.Mutex
	state     State
	submitter *Submitter
}

func NewController(s *Submitter) *Controller {
	return &Controller{submitter: s}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) apply(e Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Apply(c.state, e)
	return c.state
}

// Accept replaces the selected set with files.
func (c *Controller) Accept(files []types.SelectedFile, rejected []types.Rejection) State {
	return c.apply(Dropped{Files: files, Rejected: rejected})
}

// Submit sends whatever is selected, even nothing, and returns the settled
// state.
func (c *Controller) Submit(ctx context.Context) (st State) {
	started := c.apply(Started{})
	defer func() {
		st = c.apply(Settled{})
	}()

	c.apply(c.submitter.Run(ctx, started.Files))
	return
}

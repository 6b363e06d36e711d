package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/sheetdrop/internal/types"
	"github.com/nconklindev/sheetdrop/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
)

const fakePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"

type stubConverter struct {
	data     []byte
	err      error
	received []types.SelectedFile
}

func (s *stubConverter) Convert(_ context.Context, files []types.SelectedFile) ([]byte, error) {
	s.received = files
	return s.data, s.err
}

type stubDownloader struct {
	name string
	data []byte
}

func (s *stubDownloader) Download(name string, data []byte) (string, error) {
	s.name = name
	s.data = data
	return filepath.Join("/downloads", name), nil
}

func newTestModel(conv *stubConverter, dl *stubDownloader) Model {
	return InitialModel(workflow.NewSubmitter(conv, dl, nil), nil, nil)
}

func writePDFs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(fakePDF), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func paste(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text), Paste: true}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs any returned command until it yields one of
// the model's own messages.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func findMsg[T any](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := findMsg[T](c); ok {
				return found, true
			}
		}
	}
	return zero, false
}

func dropPaths(t *testing.T, m Model, paths []string) Model {
	t.Helper()
	m, cmd := step(t, m, paste(strings.Join(paths, " ")))
	msg, ok := findMsg[droppedMsg](cmd)
	if !ok {
		t.Fatal("paste did not produce a drop")
	}
	m, _ = step(t, m, msg)
	return m
}

func TestDrop_KeepsOrderAndExcludesNonPDF(t *testing.T) {
	m := newTestModel(&stubConverter{}, &stubDownloader{})
	paths := writePDFs(t, "b.pdf", "a.pdf")

	txt := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	m = dropPaths(t, m, []string{paths[0], txt, paths[1]})

	if len(m.state.Files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(m.state.Files))
	}
	if m.state.Files[0].Name != "b.pdf" || m.state.Files[1].Name != "a.pdf" {
		t.Errorf("Files out of order: %s, %s", m.state.Files[0].Name, m.state.Files[1].Name)
	}
	if len(m.state.Rejected) != 1 {
		t.Errorf("Expected 1 rejection, got %d", len(m.state.Rejected))
	}
	if !strings.Contains(m.View(), "Skipped 1 file(s)") {
		t.Error("View should mention the skipped file")
	}
}

func TestDrop_ReplacesPreviousSet(t *testing.T) {
	m := newTestModel(&stubConverter{}, &stubDownloader{})
	first := writePDFs(t, "one.pdf", "two.pdf")
	second := writePDFs(t, "three.pdf")

	m = dropPaths(t, m, first)
	m = dropPaths(t, m, second)

	if len(m.state.Files) != 1 || m.state.Files[0].Name != "three.pdf" {
		t.Errorf("Expected only three.pdf, got %+v", m.state.Files)
	}
}

func TestSubmit_Success(t *testing.T) {
	conv := &stubConverter{data: []byte("B")}
	dl := &stubDownloader{}
	m := newTestModel(conv, dl)
	m = dropPaths(t, m, writePDFs(t, "a.pdf"))

	m, cmd := step(t, m, key("u"))
	if !m.state.InFlight() {
		t.Fatal("Expected in-flight state right after submit")
	}
	if !strings.Contains(m.View(), "Uploading...") {
		t.Error("View should show Uploading... while in flight")
	}

	// A second trigger while in flight is ignored
	m, again := step(t, m, key("u"))
	if again != nil {
		t.Error("Submit should be disabled while in flight")
	}

	done, ok := findMsg[submissionDoneMsg](cmd)
	if !ok {
		t.Fatal("submit did not produce a result")
	}
	m, _ = step(t, m, done)

	if m.state.Phase != workflow.PhaseSucceeded {
		t.Errorf("Phase = %s; want succeeded", m.state.Phase)
	}
	if dl.name != "output.xlsx" || string(dl.data) != "B" {
		t.Errorf("Download got (%s, %q); want (output.xlsx, %q)", dl.name, dl.data, "B")
	}
	if len(conv.received) != 1 {
		t.Errorf("Expected 1 file sent, got %d", len(conv.received))
	}
	view := m.View()
	if !strings.Contains(view, workflow.SuccessMessage) {
		t.Error("View should show the success message")
	}
	if !strings.Contains(view, "Upload and Convert") {
		t.Error("Button should be enabled again")
	}
}

func TestSubmit_Failure(t *testing.T) {
	m := newTestModel(&stubConverter{err: errors.New("dial tcp 127.0.0.1:5000: connection refused")}, &stubDownloader{})

	m, cmd := step(t, m, key("u"))
	done, ok := findMsg[submissionDoneMsg](cmd)
	if !ok {
		t.Fatal("submit did not produce a result")
	}
	m, _ = step(t, m, done)

	if m.state.InFlight() {
		t.Error("In-flight flag should be cleared")
	}
	if m.state.Message != workflow.FailureMessage {
		t.Errorf("Message = %q; want %q", m.state.Message, workflow.FailureMessage)
	}
	if strings.Contains(m.View(), "connection refused") {
		t.Error("Underlying error should not be shown")
	}
}

func TestSubmit_NoFilesStillSubmits(t *testing.T) {
	conv := &stubConverter{data: []byte{}}
	m := newTestModel(conv, &stubDownloader{})

	_, cmd := step(t, m, key("u"))
	if _, ok := findMsg[submissionDoneMsg](cmd); !ok {
		t.Fatal("Expected a submission with an empty set")
	}
}

func TestPendingSelection(t *testing.T) {
	tests := []struct {
		name     string
		start    []string
		toggle   string
		expected []string
	}{
		{"Add first", nil, "/a.pdf", []string{"/a.pdf"}},
		{"Add second", []string{"/a.pdf"}, "/b.pdf", []string{"/a.pdf", "/b.pdf"}},
		{"Remove", []string{"/a.pdf", "/b.pdf"}, "/a.pdf", []string{"/b.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := togglePath(tt.start, tt.toggle)
			if strings.Join(got, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("togglePath() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestTabDropsPending(t *testing.T) {
	m := newTestModel(&stubConverter{}, &stubDownloader{})
	m.pending = writePDFs(t, "x.pdf", "y.pdf")

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if len(m.pending) != 0 {
		t.Error("Pending selection should be cleared after dropping")
	}
	msg, ok := findMsg[droppedMsg](cmd)
	if !ok {
		t.Fatal("tab did not produce a drop")
	}
	m, _ = step(t, m, msg)
	if len(m.state.Files) != 2 {
		t.Errorf("Expected 2 files, got %d", len(m.state.Files))
	}
}

func TestInitDropsInitialPaths(t *testing.T) {
	paths := writePDFs(t, "arg.pdf")
	m := InitialModel(workflow.NewSubmitter(&stubConverter{}, &stubDownloader{}, nil), paths, nil)

	msg, ok := findMsg[droppedMsg](m.drop(m.initial))
	if !ok {
		t.Fatal("expected a drop for initial paths")
	}
	next, _ := m.Update(msg)
	if got := next.(Model).State().Files; len(got) != 1 || got[0].Name != "arg.pdf" {
		t.Errorf("Expected arg.pdf to be selected, got %+v", got)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(&stubConverter{}, &stubDownloader{})
	_, cmd := step(t, m, key("q"))
	if _, ok := findMsg[tea.QuitMsg](cmd); !ok {
		t.Error("q should quit")
	}
}

package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nconklindev/sheetdrop/internal/dropzone"
	"github.com/nconklindev/sheetdrop/internal/types"
	"github.com/nconklindev/sheetdrop/internal/workflow"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type Model struct {
	state      workflow.State
	submitter  *workflow.Submitter
	filepicker filepicker.Model
	spinner    spinner.Model
	pending    []string
	initial    []string
	logger     log.Logger
	width      int
	height     int
}

type droppedMsg struct {
	event workflow.Dropped
}

type submissionDoneMsg struct {
	event workflow.Event
}

// InitialModel builds the UI. Paths given here are treated as the first drop.
func InitialModel(submitter *workflow.Submitter, paths []string, logger log.Logger) Model {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".PDF"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#123ABC"))

	return Model{
		submitter:  submitter,
		filepicker: fp,
		spinner:    sp,
		initial:    paths,
		logger:     logger,
	}
}

// State exposes the workflow state for callers that run the program.
func (m Model) State() workflow.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.filepicker.Init()}
	if len(m.initial) > 0 {
		cmds = append(cmds, m.drop(m.initial))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the header, selected list, status and help
		height := msg.Height - 20
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		// Dragging files onto a terminal pastes their paths
		if msg.Paste {
			paths, err := dropzone.Parse(string(msg.Runes))
			if err != nil {
				level.Warn(m.logger).Log("method", "Parse", "err", err)
				return m, nil
			}
			return m, m.drop(paths)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "u":
			if m.state.InFlight() {
				return m, nil
			}
			m.state = workflow.Apply(m.state, workflow.Started{})
			return m, tea.Batch(m.submit(m.state.Files), m.spinner.Tick)
		case "tab":
			if len(m.pending) == 0 {
				return m, nil
			}
			paths := m.pending
			m.pending = nil
			return m, m.drop(paths)
		case "x":
			m.pending = nil
			return m, nil
		}

	case droppedMsg:
		m.state = workflow.Apply(m.state, msg.event)
		return m, nil

	case submissionDoneMsg:
		m.state = workflow.Apply(m.state, msg.event)
		m.state = workflow.Apply(m.state, workflow.Settled{})
		return m, nil

	case spinner.TickMsg:
		if !m.state.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.pending = togglePath(m.pending, path)
	}

	return m, cmd
}

func togglePath(paths []string, path string) []string {
	if i := slices.Index(paths, path); i >= 0 {
		return slices.Delete(slices.Clone(paths), i, i+1)
	}
	return append(slices.Clone(paths), path)
}

func (m Model) drop(paths []string) tea.Cmd {
	logger := m.logger
	return func() tea.Msg {
		files, rejected := dropzone.Collect(paths)
		for _, r := range rejected {
			level.Info(logger).Log("method", "Collect", "path", r.Path, "reason", r.Reason)
		}
		return droppedMsg{event: workflow.Dropped{Files: files, Rejected: rejected}}
	}
}

func (m Model) submit(files []types.SelectedFile) tea.Cmd {
	submitter := m.submitter
	return func() tea.Msg {
		return submissionDoneMsg{event: submitter.Run(context.Background(), files)}
	}
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📄 sheetdrop - Upload PDFs to Convert to Excel"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Drag 'n' drop PDFs into this window, or pick them below"))
	s.WriteString("\n")
	s.WriteString(DropZoneStyle.Render(m.filepicker.View()))
	s.WriteString("\n")

	if len(m.pending) > 0 {
		s.WriteString(PendingStyle.Render(fmt.Sprintf("Picked: %s (tab to drop)", strings.Join(baseNames(m.pending), ", "))))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if len(m.state.Files) == 0 {
		s.WriteString(SubtitleStyle.Render("No files selected"))
		s.WriteString("\n")
	}
	for _, f := range m.state.Files {
		line := f.Path
		if f.Pages > 0 {
			line = fmt.Sprintf("%s (%d pages)", f.Path, f.Pages)
		}
		s.WriteString(FileStyle.Render("• " + line))
		s.WriteString("\n")
	}
	if n := len(m.state.Rejected); n > 0 {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Skipped %d file(s) that are not PDFs", n)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.state.InFlight() {
		s.WriteString(DisabledButtonStyle.Render("Uploading..."))
		s.WriteString(" ")
		s.WriteString(m.spinner.View())
	} else {
		s.WriteString(ButtonStyle.Render("Upload and Convert"))
	}
	s.WriteString("\n")

	switch m.state.Phase {
	case workflow.PhaseSucceeded:
		s.WriteString("\n")
		s.WriteString(SuccessStyle.Render("✓ " + m.state.Message))
		s.WriteString("\n")
		s.WriteString(m.viewResult())
	case workflow.PhaseFailed:
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("✗ " + m.state.Message))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("enter: pick file • tab: drop picked • x: clear picked • u: upload and convert • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	res := m.state.Result
	if res == nil {
		return ""
	}

	var s strings.Builder

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}
	outputPath := res.OutputFile
	if len(outputPath) > maxPathLen {
		outputPath = "..." + outputPath[len(outputPath)-maxPathLen+3:]
	}
	s.WriteString(fmt.Sprintf("Saved: %s (%d bytes)\n", outputPath, res.Bytes))

	if res.Workbook != nil {
		for _, sheet := range res.Workbook.Sheets {
			s.WriteString(fmt.Sprintf("  %s: %d rows", sheet.Name, sheet.Rows))
			if len(sheet.Headers) > 0 {
				s.WriteString(fmt.Sprintf(" [%s]", strings.Join(sheet.Headers, ", ")))
			}
			s.WriteString("\n")
		}
	}

	return s.String()
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

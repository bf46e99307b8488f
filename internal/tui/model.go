// Package tui is the interactive terminal client: a question form, the
// answer with its sources, a document upload panel and a backend health
// badge, all driven by one bubbletea event loop.
package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/clipboard"
	"github.com/casestudy-ai/cli/internal/documents"
	"github.com/casestudy-ai/cli/internal/render"
	"github.com/casestudy-ai/cli/internal/request"
	"github.com/casestudy-ai/cli/internal/validate"
)

// Options configures the terminal UI
type Options struct {
	// AutoHealth checks backend health on start
	AutoHealth bool
	Logger     *zap.Logger
}

// Model is the root bubbletea model
type Model struct {
	backend Backend
	files   *validate.Files
	logger  *zap.Logger

	query  request.Tracker[*api.Answer]
	health request.Tracker[*api.HealthStatus]
	upload request.Tracker[*api.UploadResult]

	input     textinput.Model
	pathInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model

	formErr    string
	exampleIdx int

	showUpload     bool
	uploadProgress string
	uploadNotice   string
	noticeSeq      int

	copy          clipboard.Feedback
	copySupported bool

	pendingHealth request.Token
	width         int
	height        int
}

// New creates the root model
func New(backend Backend, files *validate.Files, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = render.Placeholder
	input.CharLimit = 0
	input.Prompt = "> "
	input.Focus()

	pathInput := textinput.New()
	pathInput.Placeholder = "path/to/case-study.pdf"
	pathInput.Prompt = "file: "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := Model{
		backend:       backend,
		files:         files,
		logger:        logger,
		input:         input,
		pathInput:     pathInput,
		spinner:       sp,
		viewport:      viewport.New(80, 12),
		exampleIdx:    -1,
		copySupported: clipboard.Supported(),
		width:         80,
		height:        24,
	}
	if opts.AutoHealth {
		m.pendingHealth = m.health.Dispatch()
	}
	return m
}

// Init starts the cursor blink and the initial health check
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.pendingHealth != 0 {
		cmds = append(cmds, runHealth(m.backend, m.pendingHealth), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case queryResultMsg:
		if !m.query.Resolve(msg.token, msg.answer, msg.err) {
			m.logger.Debug("Discarded stale query response", zap.Uint64("token", uint64(msg.token)))
			return m, nil
		}
		if msg.err != nil {
			m.logFailure("Query failed", msg.err)
			return m, nil
		}
		m.logger.Info("Query answered", zap.Int("citations", len(msg.answer.Citations)))
		m.viewport.SetContent(m.answerContent())
		m.viewport.GotoTop()
		return m, nil

	case healthResultMsg:
		if !m.health.Resolve(msg.token, msg.status, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.logFailure("Health check failed", msg.err)
		}
		return m, nil

	case uploadResultMsg:
		if !m.upload.Resolve(msg.token, msg.result, msg.err) {
			return m, nil
		}
		m.uploadProgress = ""
		if msg.err != nil {
			m.logFailure("Upload failed", msg.err)
			return m, nil
		}
		m.logger.Info("File uploaded", zap.String("filename", msg.result.Filename))
		m.noticeSeq++
		m.uploadNotice = render.UploadSuccess(msg.result.Filename)
		m.pathInput.Reset()
		refresh := m.refreshHealth()
		return m, tea.Batch(expireNotice(m.noticeSeq, UploadNoticeDuration), refresh)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.uploadNotice = ""
		}
		return m, nil

	case copyExpiredMsg:
		m.copy.Expire(msg.seq)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+u":
		m.showUpload = !m.showUpload
		if m.showUpload {
			m.input.Blur()
			cmd := m.pathInput.Focus()
			return m, cmd
		}
		m.pathInput.Blur()
		cmd := m.input.Focus()
		return m, cmd

	case "ctrl+r":
		cmd := m.refreshHealth()
		return m, cmd

	case "ctrl+y":
		return m.copyAnswer()

	case "esc":
		switch {
		case m.showUpload && m.upload.Status() == request.Error:
			m.upload.Reset()
		case m.showUpload:
			m.showUpload = false
			m.pathInput.Blur()
			cmd := m.input.Focus()
			return m, cmd
		case m.query.Status() == request.Error:
			m.query.Reset()
		default:
			m.formErr = ""
		}
		return m, nil

	case "tab":
		if m.showUpload || m.query.Loading() {
			return m, nil
		}
		m.exampleIdx = (m.exampleIdx + 1) % len(render.Examples)
		m.input.SetValue(render.Examples[m.exampleIdx])
		m.input.CursorEnd()
		m.formErr = ""
		return m, nil

	case "enter":
		if m.showUpload {
			return m.submitUpload()
		}
		return m.submitQuery()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.showUpload {
		if m.upload.Loading() {
			return m, nil
		}
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}
	if m.query.Loading() {
		return m, nil
	}
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.formErr = ""
	}
	return m, cmd
}

func (m Model) submitQuery() (tea.Model, tea.Cmd) {
	if m.query.Loading() {
		return m, nil
	}
	m.formErr = ""

	question, err := validate.Question(m.input.Value())
	if err != nil {
		m.formErr = apierr.Message(err)
		return m, nil
	}

	token := m.query.Dispatch()
	// The indicator belongs to the answer being replaced
	m.copy.Reset()
	m.logger.Debug("Dispatching query", zap.Uint64("token", uint64(token)), zap.Int("length", len(question)))
	return m, tea.Batch(runQuery(m.backend, token, question), m.spinner.Tick)
}

func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	if m.upload.Loading() {
		return m, nil
	}

	path := expandHome(strings.TrimSpace(m.pathInput.Value()))
	if path == "" {
		return m, nil
	}
	if err := m.files.CheckPath(path); err != nil {
		m.upload.Reject(err)
		return m, nil
	}
	info, err := documents.Inspect(path)
	if err != nil {
		m.upload.Reject(apierr.Validation(err, "Cannot read "+filepath.Base(path)))
		return m, nil
	}

	token := m.upload.Dispatch()
	m.uploadNotice = ""
	m.uploadProgress = "Uploading " + info.Summary() + "..."
	m.logger.Info("Uploading file", zap.String("file", info.Name), zap.Int64("bytes", info.SizeBytes))
	return m, tea.Batch(runUpload(m.backend, token, path), m.spinner.Tick)
}

func (m *Model) refreshHealth() tea.Cmd {
	token := m.health.Dispatch()
	return runHealth(m.backend, token)
}

func (m Model) copyAnswer() (tea.Model, tea.Cmd) {
	answer, ok := m.query.Data()
	if !ok || !m.copySupported {
		return m, nil
	}
	copied, seq := m.copy.Copy(answer.Text)
	if !copied {
		m.logger.Warn("Failed to copy to clipboard")
		return m, nil
	}
	return m, expireCopy(seq, clipboard.FeedbackDuration)
}

func (m Model) busy() bool {
	return m.query.Loading() || m.upload.Loading() || m.health.Loading()
}

func (m *Model) resize() {
	m.input.Width = max(20, m.width-6)
	m.pathInput.Width = max(20, m.width-10)
	m.viewport.Width = max(20, m.width-4)
	m.viewport.Height = max(5, m.height-16)
	if _, ok := m.query.Data(); ok {
		m.viewport.SetContent(m.answerContent())
	}
}

func (m *Model) logFailure(msg string, err error) {
	m.logger.Warn(msg,
		zap.Error(err),
		zap.Stringer("kind", apierr.KindOf(err)),
		zap.Int("status", apierr.StatusCode(err)),
	)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casestudy-ai/cli/config"
	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/clipboard"
	"github.com/casestudy-ai/cli/internal/request"
	"github.com/casestudy-ai/cli/internal/validate"
)

type fakeBackend struct {
	questions []string
	uploads   []string

	answer       *api.Answer
	queryErr     error
	health       *api.HealthStatus
	uploadResult *api.UploadResult
}

func (f *fakeBackend) Query(ctx context.Context, question string) (*api.Answer, error) {
	f.questions = append(f.questions, question)
	return f.answer, f.queryErr
}

func (f *fakeBackend) Health(ctx context.Context) (*api.HealthStatus, error) {
	return f.health, nil
}

func (f *fakeBackend) UploadFile(ctx context.Context, path string) (*api.UploadResult, error) {
	f.uploads = append(f.uploads, filepath.Base(path))
	if f.uploadResult != nil {
		return f.uploadResult, nil
	}
	return &api.UploadResult{Success: true, Filename: filepath.Base(path), Message: "indexed"}, nil
}

func newModel(backend Backend) Model {
	return New(backend, validate.NewFiles(config.Default().Upload), Options{})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: key})
}

// results runs cmd and returns the backend results it produced, skipping
// spinner ticks
func results(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, results(c)...)
		}
	case spinner.TickMsg:
	default:
		out = append(out, msg)
	}
	return out
}

func single(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	msgs := results(cmd)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func TestQuery_EmptyQuestionNeverDispatched(t *testing.T) {
	backend := &fakeBackend{}
	m := newModel(backend)

	m = typeText(t, m, "   ")
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, "Please enter a question", m.formErr)
	assert.Equal(t, request.Idle, m.query.Status())
	assert.Empty(t, backend.questions)
	assert.Contains(t, m.View(), "Please enter a question")
}

func TestQuery_TypingClearsFormError(t *testing.T) {
	m := newModel(&fakeBackend{})

	m, _ = press(t, m, tea.KeyEnter)
	require.NotEmpty(t, m.formErr)

	m = typeText(t, m, "a")
	assert.Empty(t, m.formErr)
}

func TestQuery_Success(t *testing.T) {
	page := 3
	backend := &fakeBackend{answer: &api.Answer{
		Text:      "Uses **Stripe**\nfor billing",
		Citations: []api.Citation{{File: "a.pdf", Page: &page}},
	}}
	m := newModel(backend)

	m = typeText(t, m, "  who uses Stripe?  ")
	m, cmd := press(t, m, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.True(t, m.query.Loading())
	assert.Contains(t, m.View(), "Querying case studies...")

	m, _ = update(t, m, single(t, cmd))

	assert.Equal(t, []string{"who uses Stripe?"}, backend.questions, "question is sent trimmed")
	assert.Equal(t, request.Success, m.query.Status())
	view := m.View()
	assert.Contains(t, view, "Stripe")
	assert.Contains(t, view, "[ SOURCES: 01 ]")
	assert.Contains(t, view, "a.pdf - page 3")
	assert.NotContains(t, view, "Enter a question above")
}

func TestQuery_NoSourcesSection(t *testing.T) {
	backend := &fakeBackend{answer: &api.Answer{Text: "**x**\ny", Citations: []api.Citation{}}}
	m := newModel(backend)

	m = typeText(t, m, "q")
	m, cmd := press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	assert.NotContains(t, m.View(), "SOURCES")
}

func TestQuery_EnterIgnoredWhileLoading(t *testing.T) {
	backend := &fakeBackend{answer: &api.Answer{Text: "a"}}
	m := newModel(backend)

	m = typeText(t, m, "first")
	m, first := press(t, m, tea.KeyEnter)
	require.NotNil(t, first)

	m = typeText(t, m, " more")
	m, second := press(t, m, tea.KeyEnter)

	assert.Nil(t, second)
	assert.Equal(t, "first", m.input.Value(), "input is disabled while loading")
}

func TestQuery_ErrorAndDismiss(t *testing.T) {
	backend := &fakeBackend{queryErr: apierr.HTTP(503, "File Search store not configured")}
	m := newModel(backend)

	m = typeText(t, m, "q")
	m, cmd := press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	assert.Equal(t, request.Error, m.query.Status())
	assert.Contains(t, m.View(), "File Search store not configured")

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, request.Idle, m.query.Status())
	assert.Contains(t, m.View(), "Enter a question above to search case studies")
}

func TestQuery_StaleResponseDiscarded(t *testing.T) {
	backend := &fakeBackend{queryErr: errors.New("boom")}
	m := newModel(backend)

	m = typeText(t, m, "first")
	m, _ = press(t, m, tea.KeyEnter)
	firstToken := m.query.Latest()

	// The first request fails and is dismissed before the question is asked again
	m, _ = update(t, m, queryResultMsg{token: firstToken, err: errors.New("timeout")})
	m, _ = press(t, m, tea.KeyEsc)
	m, _ = press(t, m, tea.KeyEnter)
	secondToken := m.query.Latest()
	require.Greater(t, secondToken, firstToken)

	m, _ = update(t, m, queryResultMsg{token: secondToken, answer: &api.Answer{Text: "second answer"}})
	m, _ = update(t, m, queryResultMsg{token: firstToken, answer: &api.Answer{Text: "first answer"}})

	answer, ok := m.query.Data()
	require.True(t, ok)
	assert.Equal(t, "second answer", answer.Text)
}

func TestTab_CyclesExamples(t *testing.T) {
	m := newModel(&fakeBackend{})

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, "ecommerce platform with Shopify integration", m.input.Value())

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, "HIPAA compliant healthcare SaaS", m.input.Value())

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, "ecommerce platform with Shopify integration", m.input.Value())
}

func TestCopyAnswer(t *testing.T) {
	backend := &fakeBackend{answer: &api.Answer{Text: "pitch"}}
	m := newModel(backend)

	m.copySupported = true

	// nothing to copy yet
	_, cmd := press(t, m, tea.KeyCtrlY)
	assert.Nil(t, cmd)

	m = typeText(t, m, "q")
	m, cmd = press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	var copied string
	m.copy = clipboard.Feedback{Write: func(s string) error {
		copied = s
		return nil
	}}

	m, cmd = press(t, m, tea.KeyCtrlY)
	require.NotNil(t, cmd)
	assert.Equal(t, "pitch", copied)
	assert.Contains(t, m.View(), "Copied!")

	m, _ = update(t, m, copyExpiredMsg{seq: 1})
	assert.NotContains(t, m.View(), "Copied!")
}

func TestCopyAnswer_NewQueryClearsCopied(t *testing.T) {
	backend := &fakeBackend{answer: &api.Answer{Text: "first"}}
	m := newModel(backend)
	m.copySupported = true
	m.copy = clipboard.Feedback{Write: func(string) error { return nil }}

	m = typeText(t, m, "q")
	m, cmd := press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	m, _ = press(t, m, tea.KeyCtrlY)
	require.Contains(t, m.View(), "Copied!")

	backend.answer = &api.Answer{Text: "second"}
	m, cmd = press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	assert.Contains(t, m.View(), "second")
	assert.NotContains(t, m.View(), "Copied!")

	// the timer started by the first copy must not clear a later copy
	m, _ = press(t, m, tea.KeyCtrlY)
	m, _ = update(t, m, copyExpiredMsg{seq: 2})
	assert.Contains(t, m.View(), "Copied!")
}

func TestCopyHiddenWhenUnsupported(t *testing.T) {
	backend := &fakeBackend{answer: &api.Answer{Text: "pitch"}}
	m := newModel(backend)
	m.copySupported = false

	m = typeText(t, m, "q")
	m, cmd := press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	assert.NotContains(t, m.View(), "COPY")
	_, cmd = press(t, m, tea.KeyCtrlY)
	assert.Nil(t, cmd)
}

func TestHealthBadge(t *testing.T) {
	m := New(&fakeBackend{}, validate.NewFiles(config.Default().Upload), Options{AutoHealth: true})
	require.True(t, m.health.Loading())
	assert.Contains(t, m.View(), "checking backend")

	count := 12
	m, _ = update(t, m, healthResultMsg{
		token:  m.health.Latest(),
		status: &api.HealthStatus{Status: "healthy", StoreName: "stores/case-studies", FileCount: &count},
	})
	view := m.View()
	assert.Contains(t, view, "healthy")
	assert.Contains(t, view, "12 files")
	assert.Contains(t, view, "stores/case-studies")

	m, cmd := press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	m, _ = update(t, m, healthResultMsg{token: m.health.Latest(), status: &api.HealthStatus{Status: "degraded"}})
	assert.Contains(t, m.View(), "degraded")

	m, _ = press(t, m, tea.KeyCtrlR)
	m, _ = update(t, m, healthResultMsg{token: m.health.Latest(), err: apierr.Network(errors.New("refused"), "Network error - please check your connection and ensure the backend is running")})
	assert.Contains(t, m.View(), "offline")
}

func TestUpload_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.md")
	require.NoError(t, os.WriteFile(path, []byte("# Acme"), 0644))

	backend := &fakeBackend{health: &api.HealthStatus{Status: "healthy"}}
	m := newModel(backend)

	m, _ = press(t, m, tea.KeyCtrlU)
	require.True(t, m.showUpload)
	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.True(t, m.upload.Loading())
	assert.Contains(t, m.uploadProgress, "Uploading case.md")
	assert.Empty(t, m.input.Value(), "typing goes to the path input while the panel is open")

	m, cmd = update(t, m, single(t, cmd))
	require.NotNil(t, cmd)

	assert.Equal(t, []string{"case.md"}, backend.uploads)
	assert.Equal(t, "✓ case.md uploaded successfully", m.uploadNotice)
	assert.Empty(t, m.uploadProgress)
	assert.True(t, m.health.Loading(), "a successful upload refreshes health")

	m, _ = update(t, m, noticeExpiredMsg{seq: m.noticeSeq})
	assert.Empty(t, m.uploadNotice)
}

func TestUpload_NoticeOnlyClearedByLatestTimer(t *testing.T) {
	m := newModel(&fakeBackend{})
	m.noticeSeq = 2
	m.uploadNotice = "✓ b.md uploaded successfully"

	m, _ = update(t, m, noticeExpiredMsg{seq: 1})
	assert.NotEmpty(t, m.uploadNotice)
}

func TestUpload_ValidationRejectsBeforeNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))

	backend := &fakeBackend{}
	m := newModel(backend)

	m, _ = press(t, m, tea.KeyCtrlU)
	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, backend.uploads)
	assert.Equal(t, request.Error, m.upload.Status())
	assert.Contains(t, m.View(), "Unsupported file type. Supported: .pdf, .docx, .txt, .md")

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, request.Idle, m.upload.Status())
	assert.True(t, m.showUpload, "first esc only dismisses the error")

	m, _ = press(t, m, tea.KeyEsc)
	assert.False(t, m.showUpload)
}

func TestUpload_ServerRejection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	backend := &fakeBackend{uploadResult: &api.UploadResult{Success: false, Filename: "empty.txt"}}
	m := newModel(backend)

	m, _ = press(t, m, tea.KeyCtrlU)
	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)
	m, _ = update(t, m, single(t, cmd))

	assert.Equal(t, request.Error, m.upload.Status())
	assert.EqualError(t, m.upload.Err(), "Upload failed")
	assert.Empty(t, m.uploadNotice)
}

func TestWindowResize(t *testing.T) {
	m := newModel(&fakeBackend{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 116, m.viewport.Width)
	assert.Equal(t, 24, m.viewport.Height)
}

func TestRunCommands(t *testing.T) {
	backend := &fakeBackend{
		answer: &api.Answer{Text: "a"},
		health: &api.HealthStatus{Status: "healthy"},
	}

	msg := runQuery(backend, 7, "q")()
	assert.Equal(t, queryResultMsg{token: 7, answer: backend.answer}, msg)

	msg = runHealth(backend, 3)()
	assert.Equal(t, healthResultMsg{token: 3, status: backend.health}, msg)

	backend.uploadResult = &api.UploadResult{Message: "bad file"}
	upload := runUpload(backend, 4, "/tmp/x.md")().(uploadResultMsg)
	assert.EqualError(t, upload.err, "bad file")
}

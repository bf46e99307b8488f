package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/request"
)

// UploadNoticeDuration is how long the upload success notice stays visible
const UploadNoticeDuration = 5 * time.Second

// Backend is the part of the API client the terminal UI uses
type Backend interface {
	Query(ctx context.Context, question string) (*api.Answer, error)
	Health(ctx context.Context) (*api.HealthStatus, error)
	UploadFile(ctx context.Context, path string) (*api.UploadResult, error)
}

type queryResultMsg struct {
	token  request.Token
	answer *api.Answer
	err    error
}

type healthResultMsg struct {
	token  request.Token
	status *api.HealthStatus
	err    error
}

type uploadResultMsg struct {
	token  request.Token
	result *api.UploadResult
	err    error
}

type copyExpiredMsg struct{ seq int }

type noticeExpiredMsg struct{ seq int }

// Deadlines are applied by the client; the UI never cancels a request.

func runQuery(backend Backend, token request.Token, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := backend.Query(context.Background(), question)
		return queryResultMsg{token: token, answer: answer, err: err}
	}
}

func runHealth(backend Backend, token request.Token) tea.Cmd {
	return func() tea.Msg {
		status, err := backend.Health(context.Background())
		return healthResultMsg{token: token, status: status, err: err}
	}
}

func runUpload(backend Backend, token request.Token, path string) tea.Cmd {
	return func() tea.Msg {
		result, err := backend.UploadFile(context.Background(), path)
		if err == nil {
			err = result.Err()
		}
		return uploadResultMsg{token: token, result: result, err: err}
	}
}

func expireCopy(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return copyExpiredMsg{seq: seq}
	})
}

func expireNotice(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

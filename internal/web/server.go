// Package web serves the browser client: the question form, the answer with
// its sources, document upload and backend status as server-rendered pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/clipboard"
	"github.com/casestudy-ai/cli/internal/logging"
	"github.com/casestudy-ai/cli/internal/render"
	"github.com/casestudy-ai/cli/internal/validate"
)

// Multipart overhead allowed on top of the file size ceiling
const formOverhead = 1 << 20

const uploadNoticeDuration = 5 * time.Second

// Health is fetched on every render, so a slow backend must not hold the page
const pageHealthTimeout = 3 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the part of the API client the browser client uses
type Backend interface {
	Query(ctx context.Context, question string) (*api.Answer, error)
	Health(ctx context.Context) (*api.HealthStatus, error)
	Upload(ctx context.Context, filename string, content io.Reader) (*api.UploadResult, error)
}

// Handler renders pages on top of the backend client
type Handler struct {
	backend       Backend
	files         *validate.Files
	tmpl          *template.Template
	healthTimeout time.Duration
}

// NewHandler creates a new page handler
func NewHandler(backend Backend, files *validate.Files) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"alert": func(title, message string) alertView {
			return alertView{Title: title, Message: message}
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		backend:       backend,
		files:         files,
		tmpl:          tmpl,
		healthTimeout: pageHealthTimeout,
	}, nil
}

// NewRouter creates and configures the HTTP router
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(logger))

	// Liveness of this process, not of the backend
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", h.Index)
	r.Post("/query", h.Query)
	r.Post("/upload", h.Upload)
	r.Get("/status", h.Status)

	return r
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAction(r.Context(), "Index")

	page := h.newPage(ctx)
	page.Question = r.URL.Query().Get("q")
	h.renderPage(ctx, w, http.StatusOK, page)
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAction(r.Context(), "Query")

	raw := r.FormValue("question")
	question, err := validate.Question(raw)
	if err != nil {
		page := h.newPage(ctx)
		page.Question = raw
		page.FormError = apierr.Message(err)
		h.renderPage(ctx, w, http.StatusUnprocessableEntity, page)
		return
	}

	answer, err := h.backend.Query(ctx, question)
	page := h.newPage(ctx)
	page.Question = question
	if err != nil {
		logFailure(ctx, "query failed", err)
		page.Error = apierr.Message(err)
		h.renderPage(ctx, w, http.StatusBadGateway, page)
		return
	}

	ctxzap.Info(ctx, "query answered", zap.Int("citations", len(answer.Citations)))
	page.Answer = newAnswerView(answer)
	h.renderPage(ctx, w, http.StatusOK, page)
}

// Upload handles POST /upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAction(r.Context(), "Upload")

	limit := int64(h.files.MaxMB())<<20 + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		message := "Please choose a file to upload"
		if errors.As(err, &tooLarge) {
			message = fmt.Sprintf("File exceeds %dMB limit", h.files.MaxMB())
		}
		ctxzap.Warn(ctx, "invalid upload form", zap.Error(err))
		h.uploadFailed(ctx, w, http.StatusBadRequest, message)
		return
	}
	defer file.Close()

	if err := h.files.Check(header.Filename, header.Size); err != nil {
		h.uploadFailed(ctx, w, http.StatusUnprocessableEntity, apierr.Message(err))
		return
	}

	ctx = logging.AddFields(ctx, zap.String("filename", header.Filename), zap.Int64("bytes", header.Size))
	result, err := h.backend.Upload(ctx, header.Filename, file)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		logFailure(ctx, "upload failed", err)
		h.uploadFailed(ctx, w, http.StatusBadGateway, apierr.Message(err))
		return
	}

	ctxzap.Info(ctx, "file uploaded")
	// Health is fetched after the upload so the file count is current
	page := h.newPage(ctx)
	page.UploadNotice = render.UploadSuccess(result.Filename)
	h.renderPage(ctx, w, http.StatusOK, page)
}

// Status handles GET /status and renders the health badge alone
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAction(r.Context(), "Status")

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "status", h.health(ctx)); err != nil {
		ctxzap.Error(ctx, "failed to render status", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *Handler) uploadFailed(ctx context.Context, w http.ResponseWriter, status int, message string) {
	page := h.newPage(ctx)
	page.UploadError = message
	h.renderPage(ctx, w, status, page)
}

func (h *Handler) newPage(ctx context.Context) *pageData {
	examples := make([]exampleView, len(render.Examples))
	for i, text := range render.Examples {
		examples[i] = exampleView{Index: render.Index(i), Text: text}
	}

	return &pageData{
		Health:             h.health(ctx),
		Examples:           examples,
		Placeholder:        render.Placeholder,
		EmptyTitle:         render.EmptyTitle,
		Accept:             strings.Join(h.files.Extensions(), ","),
		Supported:          strings.Join(h.files.Extensions(), ", "),
		MaxMB:              h.files.MaxMB(),
		CopyFeedbackMillis: clipboard.FeedbackDuration.Milliseconds(),
		NoticeMillis:       uploadNoticeDuration.Milliseconds(),
	}
}

func (h *Handler) health(ctx context.Context) healthView {
	ctx, cancel := context.WithTimeout(ctx, h.healthTimeout)
	defer cancel()

	status, err := h.backend.Health(ctx)
	if err != nil {
		logFailure(ctx, "health check failed", err)
		return healthView{Err: apierr.Message(err)}
	}

	view := healthView{
		Healthy:   status.Healthy(),
		Status:    status.Status,
		StoreName: status.StoreName,
	}
	if status.FileCount != nil {
		view.HasFileCount = true
		view.FileCount = *status.FileCount
	}
	return view
}

func (h *Handler) renderPage(ctx context.Context, w http.ResponseWriter, status int, page *pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		ctxzap.Error(ctx, "failed to render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func logFailure(ctx context.Context, msg string, err error) {
	ctxzap.Warn(ctx, msg,
		zap.Error(err),
		zap.Stringer("kind", apierr.KindOf(err)),
		zap.Int("status", apierr.StatusCode(err)),
	)
}

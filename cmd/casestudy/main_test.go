package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casestudy-ai/cli/config"
)

type backend struct {
	mu        sync.Mutex
	questions []string
	uploads   []string

	health string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/query":
		var req struct {
			Question string `json:"question"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.questions = append(b.questions, req.Question)
		w.Write([]byte(`{"answer":"## Acme\n**Stripe** billing","citations":[{"file":"acme.pdf","page":2}]}`))
	case "/health":
		status := b.health
		if status == "" {
			status = "healthy"
		}
		fmt.Fprintf(w, `{"status":%q,"store_name":"stores/case-studies","file_count":4}`, status)
	case "/api/upload":
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.uploads = append(b.uploads, header.Filename)
		fmt.Fprintf(w, `{"success":true,"filename":%q,"message":"indexed"}`, header.Filename)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Log.Level = "error"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	return b, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAsk(t *testing.T) {
	b, path := setup(t)

	out, err := execute(t, "--config", path, "ask", "who", "uses", "Stripe?")
	require.NoError(t, err)

	assert.Equal(t, []string{"who uses Stripe?"}, b.questions)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Stripe")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "[ SOURCES: 01 ]")
	assert.Contains(t, out, "01 acme.pdf - page 2")
}

func TestAsk_HTML(t *testing.T) {
	_, path := setup(t)

	out, err := execute(t, "--config", path, "ask", "--html", "billing")
	require.NoError(t, err)
	assert.Contains(t, out, "## Acme<br /><strong>Stripe</strong> billing")
}

func TestAsk_RejectsBlankQuestion(t *testing.T) {
	b, path := setup(t)

	_, err := execute(t, "--config", path, "ask", "  ")
	require.Error(t, err)
	assert.Equal(t, "Please enter a question", err.Error())
	assert.Empty(t, b.questions)
}

func TestHealth(t *testing.T) {
	b, path := setup(t)

	out, err := execute(t, "--config", path, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:  healthy")
	assert.Contains(t, out, "Files:   4")

	b.health = "degraded"
	_, err = execute(t, "--config", path, "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")
}

func TestUpload(t *testing.T) {
	b, path := setup(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "case.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Acme"), 0644))

	out, err := execute(t, "--config", path, "upload", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploading case.md (0.0MB)...")
	assert.Contains(t, out, "✓ case.md uploaded successfully")
	assert.Equal(t, []string{"case.md"}, b.uploads)
}

func TestUpload_UnsupportedNeverSent(t *testing.T) {
	b, path := setup(t)
	logo := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("png"), 0644))

	_, err := execute(t, "--config", path, "upload", logo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported file type")
	assert.Empty(t, b.uploads)
}

func TestIngest(t *testing.T) {
	b, path := setup(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "a.md"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("png"), 0644))

	out, err := execute(t, "--config", path, "ingest", dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"b.txt", "a.md"}, b.uploads)
	assert.Contains(t, out, "✓ Ingested: 2 files")
	assert.Contains(t, out, "⊘ Skipped: 1 unsupported files")
	assert.NotContains(t, out, "Errors:")
}

func TestIngest_MissingFolder(t *testing.T) {
	_, path := setup(t)

	_, err := execute(t, "--config", path, "ingest", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err = execute(t, "--config", path, "config", "init")
	require.Error(t, err, "an existing file is not overwritten")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "base_url:"), out)
	assert.Contains(t, out, "max_file_size_mb: 100")
}

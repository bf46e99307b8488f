package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/casestudy-ai/cli/internal/documents"
)

const separator = "=================================================="

func newIngestCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest [folder]",
		Short: "Upload every supported document under a folder",
		Long: `Scans a folder recursively and uploads every supported document, one
at a time. Unsupported files are skipped and oversized files fail without
being sent.

With --watch the folder is then watched and new or changed documents are
uploaded once they stop changing, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIngest(ctx, a, cmd.OutOrStdout(), args[0], watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep watching the folder for new or changed documents")
	return cmd
}

func runIngest(ctx context.Context, a *app, out io.Writer, dir string, watch bool) error {
	files := a.files()

	fmt.Fprintf(out, "Scanning folder: %s\n", dir)
	fmt.Fprintf(out, "Supported formats: %s\n", strings.Join(files.Extensions(), ", "))
	fmt.Fprintf(out, "File size limit: %dMB per file\n\n", files.MaxMB())

	ingester := documents.NewIngester(a.client(), files, a.logger, func(r documents.Result) {
		printResult(out, r)
	})

	summary, err := ingester.Dir(ctx, dir)
	if err != nil {
		return err
	}
	printSummary(out, "Ingestion complete!", summary, a.cfg.API.BaseURL)

	if !watch || ctx.Err() != nil {
		return nil
	}

	fmt.Fprintf(out, "\nWatching %s for changes (ctrl+c to stop)...\n", dir)
	watched, err := ingester.Watch(ctx, dir, a.cfg.Ingest.Settle)
	if err != nil {
		return err
	}
	printSummary(out, "Watch stopped.", watched, a.cfg.API.BaseURL)
	return nil
}

func printResult(out io.Writer, r documents.Result) {
	name := filepath.Base(r.Path)
	if r.Info != nil {
		name = r.Info.Summary()
	}

	switch r.Outcome {
	case documents.Ingested:
		fmt.Fprintf(out, "✓ %s\n", name)
	case documents.Failed:
		fmt.Fprintf(out, "✗ %s: %s\n", name, r.Message)
	case documents.Unchanged:
		fmt.Fprintf(out, "= %s unchanged\n", name)
	}
}

func printSummary(out io.Writer, title string, s documents.Summary, backend string) {
	fmt.Fprintf(out, "\n%s\n", separator)
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "   ✓ Ingested: %d files\n", s.Ingested)
	if s.Skipped > 0 {
		fmt.Fprintf(out, "   ⊘ Skipped: %d unsupported files\n", s.Skipped)
	}
	if s.Failed > 0 {
		fmt.Fprintf(out, "   ✗ Errors: %d files failed\n", s.Failed)
	}
	fmt.Fprintf(out, "   Backend: %s\n", backend)
	fmt.Fprintln(out, separator)
}

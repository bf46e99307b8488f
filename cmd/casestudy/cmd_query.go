package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/documents"
	"github.com/casestudy-ai/cli/internal/render"
	"github.com/casestudy-ai/cli/internal/validate"
)

func newAskCmd(a *app) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the backend one question",
		Example: `  casestudy ask "HIPAA compliant healthcare SaaS"
  casestudy ask --html Stripe payment processing implementation`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := validate.Question(strings.Join(args, " "))
			if err != nil {
				return err
			}

			answer, err := a.client().Query(cmd.Context(), question)
			if err != nil {
				return err
			}

			printAnswer(cmd.OutOrStdout(), answer, html)
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Print the answer as HTML")
	return cmd
}

func printAnswer(out io.Writer, answer *api.Answer, html bool) {
	if html {
		fmt.Fprintln(out, render.HTML(answer.Text))
	} else {
		fmt.Fprintln(out, render.Terminal(answer.Text, 0))
	}

	if len(answer.Citations) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", render.SourcesLabel(len(answer.Citations)))
	for i, c := range answer.Citations {
		fmt.Fprintf(out, "  %s %s\n", render.Index(i), render.Citation(c))
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client().Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", a.cfg.API.BaseURL)
			fmt.Fprintf(out, "Status:  %s\n", status.Status)
			if status.StoreName != "" {
				fmt.Fprintf(out, "Store:   %s\n", status.StoreName)
			}
			if status.FileCount != nil {
				fmt.Fprintf(out, "Files:   %d\n", *status.FileCount)
			}

			if !status.Healthy() {
				return fmt.Errorf("backend is %s", status.Status)
			}
			return nil
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload one document to the case study store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := a.files().CheckPath(path); err != nil {
				return err
			}
			info, err := documents.Inspect(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploading %s...\n", info.Summary())

			result, err := a.client().UploadFile(cmd.Context(), path)
			if err == nil {
				err = result.Err()
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, render.UploadSuccess(result.Filename))
			if result.Message != "" {
				fmt.Fprintf(out, "  %s\n", result.Message)
			}
			return nil
		},
	}
}

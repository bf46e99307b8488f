// Command casestudy is the CaseStudy AI client: an interactive terminal UI,
// a browser UI server and one-shot commands against the query backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casestudy-ai/cli/config"
	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/logging"
	"github.com/casestudy-ai/cli/internal/tui"
	"github.com/casestudy-ai/cli/internal/validate"
)

// Commands annotated with skipConfig run without loading the config file
const skipConfig = "skip-config"

// app holds what PersistentPreRunE builds for every command
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) client() *api.Client {
	return api.NewFromConfig(a.cfg.API, a.logger)
}

func (a *app) files() *validate.Files {
	return validate.NewFiles(a.cfg.Upload)
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "casestudy",
		Short: "CaseStudy AI - query case studies, extract insights, generate proposals",
		Long: `CaseStudy AI asks the case study backend questions and shows the
answer with its sources.

Run without arguments to start the interactive terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			// The terminal UI owns the screen, so it logs to a file
			logger, err := logging.New(cfg.Log, logging.Options{
				ToFile:  !cmd.HasParent(),
				Verbose: a.verbose,
			})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(a)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: ~/.casestudy-ai/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAskCmd(a),
		newHealthCmd(a),
		newUploadCmd(a),
		newIngestCmd(a),
		newWebCmd(a),
		newConfigCmd(a),
	)
	return root
}

func runInteractive(a *app) error {
	a.logger.Info("Starting terminal UI", zap.String("backend", a.cfg.API.BaseURL))

	m := tui.New(a.client(), a.files(), tui.Options{
		AutoHealth: true,
		Logger:     a.logger,
	})
	return tui.Run(m)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apierr.Message(err))
		os.Exit(1)
	}
}

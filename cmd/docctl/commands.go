package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docclass/internal/adapters/report"
	"github.com/kirillkom/docclass/internal/bootstrap"
	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/infrastructure/textproc"
	"github.com/kirillkom/docclass/internal/observability/logging"
)

const serviceName = "docctl"

type rootOptions struct {
	modelDir string
	logLevel string
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &rootOptions{modelDir: cfg.ModelDir, logLevel: cfg.LogLevel}

	root := &cobra.Command{
		Use:           "docctl",
		Short:         "Classify documents and manage the local model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.modelDir, "model-dir", opts.modelDir, "directory holding model artifacts")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newClassifyCmd(cfg, opts),
		newEvaluateCmd(cfg, opts),
		newBootstrapCmd(cfg, opts),
		newRequestCmd(cfg, opts),
	)
	return root
}

func loadApp(ctx context.Context, cfg config.Config, opts *rootOptions, stderr io.Writer) (*bootstrap.App, error) {
	cfg.ModelDir = opts.modelDir
	logger := logging.New(stderr, serviceName, opts.logLevel)
	return bootstrap.New(ctx, cfg, logger, nil, serviceName)
}

func newClassifyCmd(cfg config.Config, opts *rootOptions) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify a PDF or DOCX file, or raw text with --text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && text == "" {
				return errors.New("either a file or --text is required")
			}
			app, err := loadApp(cmd.Context(), cfg, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var result *domain.ClassificationResult
			if len(args) == 0 {
				result, err = app.ClassifyUC.ClassifyText(cmd.Context(), text)
			} else {
				result, err = classifyFile(cmd.Context(), app, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "classify this text instead of a file")
	return cmd
}

func classifyFile(ctx context.Context, app *bootstrap.App, path string) (*domain.ClassificationResult, error) {
	format, ok := domain.FormatFromFilename(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q: allowed pdf, docx", filepath.Ext(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return app.ClassifyUC.Classify(ctx, domain.RawDocument{
		Filename: filepath.Base(path),
		Format:   format,
		Content:  content,
	})
}

func newEvaluateCmd(cfg config.Config, opts *rootOptions) *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the model against the built-in validation sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), cfg, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := app.EvaluateUC.Evaluate(cmd.Context())
			if err != nil {
				return err
			}
			if reportPath != "" {
				raw, err := report.EvaluationXLSX(result)
				if err != nil {
					return err
				}
				if err := os.WriteFile(reportPath, raw, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "also write an .xlsx report to this path")
	return cmd
}

func newBootstrapCmd(cfg config.Config, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Retrain the model from the seed corpus and overwrite the artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.ModelDir = opts.modelDir
			logger := logging.New(cmd.ErrOrStderr(), serviceName, opts.logLevel)
			store, err := bootstrap.NewModelStore(cfg, textproc.NewNormalizer(logger), logger)
			if err != nil {
				return err
			}
			pair, err := store.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"model_dir": opts.modelDir,
				"features":  pair.Vectorizer.Dimension(),
				"classes":   pair.Classifier.NumClasses(),
			})
		},
	}
}

func newRequestCmd(cfg config.Config, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "request <file>",
		Short: "Send a file to a running worker over NATS and print its reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			logger := logging.New(cmd.ErrOrStderr(), serviceName, opts.logLevel)
			queue, err := bootstrap.NewQueue(cfg, logger)
			if err != nil {
				return err
			}
			defer queue.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ClassifyTimeout())
			defer cancel()
			event, err := queue.RequestClassify(ctx, domain.ClassifyRequest{
				Filename: filepath.Base(args[0]),
				Content:  content,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), event)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

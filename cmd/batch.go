package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/underwriting-cli/internal/model"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch <email-dir>",
	Short: "Generate quotes for a directory of broker emails",
	Long:  "Processes every .txt and .eml file in the directory through the pipeline, bounded by batch.max_concurrent.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initQuoteEnv(ctx, "quote")
		if err != nil {
			return err
		}
		defer env.Close()

		emails, err := collectEmailFiles(args[0])
		if err != nil {
			return err
		}

		return processBatch(ctx, emails, batchLimit, cfg.Batch.MaxConcurrent, func(ctx context.Context, email string) *model.PipelineResult {
			return env.Pipeline.Process(ctx, email)
		})
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of emails to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// batchEmail is one email file queued for processing.
type batchEmail struct {
	Path    string
	Content string
}

// collectEmailFiles reads every .txt and .eml file in dir, sorted by name.
func collectEmailFiles(dir string) ([]batchEmail, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "read email directory")
	}

	var emails []batchEmail
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".eml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "read email file")
		}
		emails = append(emails, batchEmail{Path: path, Content: string(data)})
	}

	sort.Slice(emails, func(i, j int) bool { return emails[i].Path < emails[j].Path })
	return emails, nil
}

// processFunc is the callback signature for running one email through the
// pipeline.
type processFunc func(ctx context.Context, email string) *model.PipelineResult

// processBatch applies limit, then processes emails concurrently with the
// given function. Individual failures are logged, not fatal to the batch.
func processBatch(ctx context.Context, emails []batchEmail, limit, concurrency int, process processFunc) error {
	if len(emails) == 0 {
		zap.L().Info("no email files found")
		return nil
	}

	if limit > 0 && len(emails) > limit {
		emails = emails[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("emails", len(emails)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, email := range emails {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", email.Path))

			result := process(gctx, email.Content)
			if !result.Success {
				failed.Add(1)
				log.Error("quote generation failed", zap.Strings("errors", result.Errors))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			fields := []zap.Field{zap.String("quote_id", result.QuoteID)}
			if result.ModifierResult != nil {
				fields = append(fields, zap.Float64("premium", result.ModifierResult.AdjustedPremium))
			}
			log.Info("quote generated", fields...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

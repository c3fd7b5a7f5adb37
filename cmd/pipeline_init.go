package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/pipeline"
	"github.com/sells-group/underwriting-cli/internal/retrieval"
	"github.com/sells-group/underwriting-cli/internal/store"
	anthropicpkg "github.com/sells-group/underwriting-cli/pkg/anthropic"
	"github.com/sells-group/underwriting-cli/pkg/jina"
)

// quoteEnv holds the initialized store, clients, and pipeline shared by the
// quote/batch/serve commands.
type quoteEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the quote environment.
func (qe *quoteEnv) Close() {
	if qe.Store != nil {
		_ = qe.Store.Close()
	}
}

// initQuoteEnv validates config for the given mode, sets up the store and
// API clients, and builds the Pipeline. Callers should defer env.Close().
func initQuoteEnv(ctx context.Context, mode string, opts ...pipeline.Option) (*quoteEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	gen := llm.NewAnthropicGenerator(anthropicClient, cfg.Anthropic.Model, cfg.Anthropic.RequestsPerSecond)

	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithModel(cfg.Jina.Model),
	)
	searcher := retrieval.NewStoreSearcher(st, jinaClient)

	opts = append([]pipeline.Option{
		pipeline.WithStore(st),
		pipeline.WithTopK(cfg.Retrieval.TopK),
		pipeline.WithQuoteValidDays(cfg.Pipeline.QuoteValidDays),
		pipeline.WithTimeout(time.Duration(cfg.Pipeline.TimeoutSecs) * time.Second),
	}, opts...)

	return &quoteEnv{
		Store:    st,
		Pipeline: pipeline.New(gen, searcher, opts...),
	}, nil
}

package main

import (
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/pkg/jina"
)

// embedBatchSize bounds one Jina embeddings request.
const embedBatchSize = 100

var seedCmd = &cobra.Command{
	Use:   "seed <corpus.yaml>",
	Short: "Load reference documents into the store",
	Long:  "Embeds the reference corpus (BIC codes, rating manuals, underwriting guidelines, modifier rules) and replaces the store's collections with it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read corpus file")
		}
		corpus, err := loadCorpus(data)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		embedder := jina.NewClient(cfg.Jina.Key,
			jina.WithBaseURL(cfg.Jina.BaseURL),
			jina.WithModel(cfg.Jina.Model),
		)

		// Deterministic collection order for readable logs.
		names := make([]string, 0, len(corpus.Collections))
		for name := range corpus.Collections {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			docs := corpusDocuments(name, corpus.Collections[name])
			if len(docs) == 0 {
				zap.L().Warn("seed: empty collection skipped", zap.String("collection", name))
				continue
			}

			for start := 0; start < len(docs); start += embedBatchSize {
				end := min(start+embedBatchSize, len(docs))
				texts := make([]string, 0, end-start)
				for _, doc := range docs[start:end] {
					texts = append(texts, doc.Content)
				}
				embeddings, err := embedder.Embed(ctx, texts)
				if err != nil {
					return eris.Wrap(err, "seed: embed documents")
				}
				if len(embeddings) != len(texts) {
					return eris.Errorf("seed: got %d embeddings for %d documents", len(embeddings), len(texts))
				}
				for i := range embeddings {
					docs[start+i].Embedding = embeddings[i]
				}
			}

			if err := st.ReplaceCollection(ctx, name, docs); err != nil {
				return eris.Wrap(err, "seed: replace collection")
			}
			zap.L().Info("seed: collection loaded",
				zap.String("collection", name),
				zap.Int("documents", len(docs)),
			)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// corpusFile is the YAML layout of a reference corpus: collection name to
// document list.
type corpusFile struct {
	Collections map[string][]corpusDocument `yaml:"collections"`
}

type corpusDocument struct {
	Name     string            `yaml:"name"`
	Content  string            `yaml:"content"`
	Metadata map[string]string `yaml:"metadata"`
}

func loadCorpus(data []byte) (*corpusFile, error) {
	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, eris.Wrap(err, "parse corpus file")
	}
	if len(corpus.Collections) == 0 {
		return nil, eris.New("corpus file has no collections")
	}
	for name, docs := range corpus.Collections {
		for i, doc := range docs {
			if doc.Content == "" {
				return nil, eris.Errorf("collection %s: document %d has no content", name, i)
			}
		}
	}
	return &corpus, nil
}

func corpusDocuments(collection string, docs []corpusDocument) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, model.Document{
			ID:         uuid.NewString(),
			Collection: collection,
			Name:       doc.Name,
			Content:    doc.Content,
			Metadata:   doc.Metadata,
		})
	}
	return out
}

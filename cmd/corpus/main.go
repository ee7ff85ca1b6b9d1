// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/reembed"
	"github.com/poiesic/corpus/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Hybrid lexical and semantic retrieval over topic document collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the corpus data directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "https://api.openai.com/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "text-embedding-3-small",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding service API key",
				EnvVars: []string{"CORPUS_API_KEY", "OPENAI_API_KEY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text files into a topic",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk window size in tokens",
						Value: 800,
					},
					&cli.IntFlag{
						Name:  "chunk-stride",
						Usage: "Chunk window stride in tokens",
						Value: 600,
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Retrieve ranked context chunks for a query",
				ArgsUsage: "QUERY",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "alpha",
						Usage: "Semantic weight in [0, 1]",
						Value: 0.6,
					},
					&cli.IntFlag{
						Name:  "k-semantic",
						Usage: "Semantic candidate pool size",
						Value: 200,
					},
					&cli.IntFlag{
						Name:  "k-lexical",
						Usage: "Lexical candidate pool size",
						Value: 200,
					},
					&cli.IntFlag{
						Name:  "k-context",
						Usage: "Maximum number of results",
						Value: 30,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild a topic's lexical index from stored chunks",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show chunk, embedding and index counts for a topic",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a document's chunks, embeddings and index entries",
				ArgsUsage: "NAME",
				Action:    removeCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed a topic's chunks under a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openCorpus(c *cli.Context) (*corpus.Corpus, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	return corpus.Open(c.String("data"), corpus.WithAIConfig(config))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	pipeline, err := cp.NewIngestionPipeline(
		ingestion.WithChunking(c.Int("chunk-size"), c.Int("chunk-stride")),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	topicID := core.ID(c.Uint64("topic"))
	ctx := context.Background()

	for _, path := range c.Args().Slice() {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := filepath.Base(path)
		chunks, err := pipeline.IngestDocument(ctx, topicID, name, string(text))
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("Ingested %s: %d chunks\n", name, len(chunks))
	}

	return nil
}

func retrieveCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}
	query := c.Args().First()

	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	params := core.Params{
		Alpha:     c.Float64("alpha"),
		KSemantic: c.Int("k-semantic"),
		KLexical:  c.Int("k-lexical"),
		KContext:  c.Int("k-context"),
	}

	retriever, err := cp.NewRetriever(search.WithParams(params))
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	topicID := core.ID(c.Uint64("topic"))
	results, err := retriever.Retrieve(context.Background(), topicID, query)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%2d. chunk %d (doc %d, index %d) hybrid=%.4f sem=%.4f lex=%.4f\n",
			i+1, result.ChunkId, result.DocumentId, result.ChunkIndex,
			result.HybridScore, result.SemanticScore, result.LexicalScore)
		fmt.Printf("    %s\n", truncate(result.Text, 200))
	}

	return nil
}

func reindexCommand(c *cli.Context) error {
	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	pipeline, err := cp.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	topicID := core.ID(c.Uint64("topic"))
	if err := pipeline.ReindexTopic(context.Background(), topicID); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Printf("Rebuilt lexical index for topic %d\n", topicID)
	return nil
}

func statsCommand(c *cli.Context) error {
	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	pipeline, err := cp.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	topicID := core.ID(c.Uint64("topic"))
	stats, err := pipeline.Stats(context.Background(), topicID)
	if err != nil {
		return fmt.Errorf("failed to gather stats: %w", err)
	}

	fmt.Printf("Topic %d\n", topicID)
	fmt.Printf("  Chunks:     %d\n", stats.Chunks)
	fmt.Printf("  Embeddings: %d\n", stats.Embeddings)
	fmt.Printf("  Indexed:    %d\n", stats.IndexSize)
	return nil
}

func removeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document name argument is required")
	}
	name := c.Args().First()

	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	pipeline, err := cp.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	topicID := core.ID(c.Uint64("topic"))
	if err := pipeline.RemoveDocument(context.Background(), topicID, name); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	fmt.Printf("Removed document %s from topic %d\n", name, topicID)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cp, err := openCorpus(c)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer cp.Close()

	config := reembed.DefaultConfig()
	config.Model = c.String("embedding-model")
	config.BatchSize = c.Int("batch-size")
	config.ReportInterval = c.Int("report-interval")

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	reembedder, err := reembed.NewReembedder(
		cp.ChunkRepository(), cp.EmbeddingRepository(), cp.Embedder(), config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	topicID := core.ID(c.Uint64("topic"))

	fmt.Fprintf(os.Stderr, "Data directory: %s\n", c.String("data"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background(), topicID); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

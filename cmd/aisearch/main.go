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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/aisearch"
	"github.com/poiesic/aisearch/ai"
	"github.com/poiesic/aisearch/config"
	"github.com/poiesic/aisearch/ingestion"
)

func main() {
	if err := newApp(os.Stdout, nil).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. A non-nil provider replaces the configured one.
func newApp(out io.Writer, provider ai.AIProvider) *cli.App {
	r := &runner{out: out, provider: provider}
	limitFlag := &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of results (0 uses the query or the configured default)",
	}
	return &cli.App{
		Name:  "aisearch",
		Usage: "Semantic search over a literary corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"AISEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Index location, overrides index.path",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Show how a query is interpreted",
				ArgsUsage: "QUERY",
				Action:    r.parse,
			},
			{
				Name:      "search",
				Usage:     "Rank documents for a query",
				ArgsUsage: "QUERY",
				Action:    r.search,
				Flags: []cli.Flag{
					limitFlag,
					&cli.BoolFlag{
						Name:  "no-summaries",
						Usage: "Skip result summaries",
					},
				},
			},
			{
				Name:      "passages",
				Usage:     "Find the passages closest to a query",
				ArgsUsage: "QUERY",
				Action:    r.passages,
				Flags:     []cli.Flag{limitFlag},
			},
			{
				Name:      "similar",
				Usage:     "Find documents similar to an indexed document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    r.similar,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of similar documents",
						Value:   5,
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Index a JSONL corpus file",
				ArgsUsage: "FILE",
				Action:    r.index,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of records indexed concurrently (0 uses ingest.workers)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records (0 disables progress output)",
						Value: 100,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a document and its passages from the index",
				ArgsUsage: "DOCUMENT_ID",
				Action:    r.delete,
			},
			{
				Name:   "status",
				Usage:  "Report provider readiness and index size",
				Action: r.status,
			},
		},
	}
}

type runner struct {
	out      io.Writer
	provider ai.AIProvider
}

func (r *runner) openEngine(c *cli.Context) (*aisearch.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Index.Path = db
	}
	opts := []aisearch.EngineOption{aisearch.WithLogger(slog.Default())}
	if r.provider != nil {
		opts = append(opts, aisearch.WithProvider(r.provider))
	}
	return aisearch.NewEngine(cfg, opts...)
}

func (r *runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func queryArg(c *cli.Context) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%s: query is required", c.Command.Name)
	}
	return text, nil
}

func (r *runner) parse(c *cli.Context) error {
	text, err := queryArg(c)
	if err != nil {
		return err
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()
	return r.writeJSON(engine.Parse(text))
}

func (r *runner) search(c *cli.Context) error {
	text, err := queryArg(c)
	if err != nil {
		return err
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	summaries := engine.Config().Search.Summaries && !c.Bool("no-summaries")
	resp, err := engine.Search(c.Context, text, c.Int("limit"), summaries)
	if err != nil {
		return err
	}
	return r.writeJSON(resp)
}

func (r *runner) passages(c *cli.Context) error {
	text, err := queryArg(c)
	if err != nil {
		return err
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	resp, err := engine.Passages(c.Context, text, c.Int("limit"))
	if err != nil {
		return err
	}
	return r.writeJSON(resp)
}

func (r *runner) similar(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("similar: document id is required")
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	resp, err := engine.Similar(c.Context, id, c.Int("limit"))
	if err != nil {
		return err
	}
	return r.writeJSON(resp)
}

func (r *runner) index(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("index: input file is required")
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []ingestion.Option
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	if interval := c.Int("report-interval"); interval > 0 {
		opts = append(opts, ingestion.WithProgress(ingestion.NewProgress(c.App.ErrWriter, interval)))
	}
	pipeline, err := engine.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stats, indexErr := pipeline.IndexFile(c.Context, path)
	if indexErr != nil && stats.Documents == 0 && stats.Failed == 0 {
		return indexErr
	}
	if err := r.writeJSON(stats); err != nil {
		return err
	}
	if indexErr != nil {
		slog.Warn("some records failed to index", "failed", stats.Failed, "err", indexErr)
	}
	return nil
}

func (r *runner) delete(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("delete: document id is required")
	}
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Index().DeleteDocument(c.Context, id); err != nil {
		return err
	}
	return r.writeJSON(map[string]string{"deleted": id})
}

func (r *runner) status(c *cli.Context) error {
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()
	return r.writeJSON(engine.Status(c.Context))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/bookfinder"
	"github.com/poiesic/bookfinder/catalog"
	"github.com/poiesic/bookfinder/config"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/recommend"
	"github.com/poiesic/bookfinder/search"
	"github.com/poiesic/bookfinder/server"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to the catalog database directory (overrides database.path)",
	}

	return &cli.App{
		Name:  "bookfinder",
		Usage: "Hybrid keyword and semantic search over a book catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.ConfigPathEnvVar},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search and print the ranked books",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringSliceFlag{
						Name:    "genre",
						Aliases: []string{"g"},
						Usage:   "Keep books in any of these genres (repeatable)",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Keep books whose authors contain this text",
					},
					&cli.IntFlag{
						Name:  "year-min",
						Usage: "Earliest publication year",
					},
					&cli.IntFlag{
						Name:  "year-max",
						Usage: "Latest publication year",
					},
					&cli.Float64Flag{
						Name:  "min-rating",
						Usage: "Minimum average rating (0-5)",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Language code",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results to print (0 prints all)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print each pipeline stage to stderr",
					},
				},
			},
			{
				Name:   "recommend",
				Usage:  "Recommend books similar to liked ones",
				Action: recommendCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringSliceFlag{
						Name:     "seed",
						Aliases:  []string{"s"},
						Usage:    "ID of a liked book (repeatable)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of recommendations (overrides recommend.default_limit)",
					},
				},
			},
			{
				Name:   "get",
				Usage:  "Print a single book",
				Action: getCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Book ID",
						Required: true,
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Load a JSON-lines catalog with precomputed vectors",
				Action: importCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSON-lines catalog",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to write in each batch",
						Value: catalog.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed writes",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Required vector length (0 takes the first vector's length)",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Stop at the first malformed record instead of skipping it",
					},
				},
			},
		},
	}
}

// loadConfig reads the layered config and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
		cfg.Database.InMemory = false
	}
	return cfg, nil
}

func openEngine(cfg *config.Config) (*bookfinder.Engine, error) {
	opts := []bookfinder.Option{
		bookfinder.WithAIConfig(cfg.AIConfig()),
		bookfinder.WithPoolSize(cfg.Search.PoolSize),
		bookfinder.WithLogger(slog.Default()),
	}
	if cfg.Database.IndexPath != "" {
		opts = append(opts, bookfinder.WithIndexPath(cfg.Database.IndexPath))
	}
	if cfg.Database.InMemory {
		opts = append(opts, bookfinder.WithInMemory())
	}
	if cfg.Cache.Enabled {
		opts = append(opts, bookfinder.WithResultCache(cfg.CacheConfig()))
	}

	engine, err := bookfinder.Open(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return engine, nil
}

func searchOptions(cfg *config.Config) []search.Option {
	return []search.Option{
		search.WithLexicalK(cfg.Search.LexicalK),
		search.WithSemanticK(cfg.Search.SemanticK),
		search.WithTopN(cfg.Search.TopN),
		search.WithRerankTextLength(cfg.Search.RerankTextLength),
	}
}

func recommendOptions(cfg *config.Config) []recommend.Option {
	return []recommend.Option{
		recommend.WithMinSimilarity(float32(cfg.Recommend.MinSimilarity)),
		recommend.WithMaxLimit(cfg.Recommend.MaxLimit),
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(searchOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	recommender, err := engine.NewRecommender(recommendOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create recommender: %w", err)
	}
	defer recommender.Release()

	srv, err := server.New(searcher, recommender, engine,
		server.WithLogger(slog.Default()),
		server.WithHealthCheck(engine.Ping),
		server.WithCORSOrigins(cfg.Server.CORSOrigins...),
		server.WithRateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// filtersFromFlags builds a filter spec from the search flags. It returns nil
// when no filter flag was given.
func filtersFromFlags(c *cli.Context) *core.FilterSpec {
	filters := &core.FilterSpec{
		Genres:    c.StringSlice("genre"),
		Author:    c.String("author"),
		YearMin:   c.Int("year-min"),
		YearMax:   c.Int("year-max"),
		MinRating: c.Float64("min-rating"),
		Language:  c.String("language"),
	}
	if filters.IsEmpty() {
		return nil
	}
	return filters
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	filters := filtersFromFlags(c)
	if query == "" && filters == nil {
		return errors.New("a query or at least one filter is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(searchOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = &explainMonitor{w: c.App.ErrWriter}
	}
	results, err := searcher.SearchWithMonitor(c.Context, query, filters, monitor)
	if err != nil {
		return err
	}
	if limit := c.Int("limit"); limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	records := make([]core.BookRecord, len(results))
	for i, result := range results {
		records[i] = core.NewScoredBookRecord(result)
	}
	return printJSON(c.App.Writer, records)
}

func recommendCommand(c *cli.Context) error {
	raw := c.StringSlice("seed")
	values := make([]any, len(raw))
	for i, s := range raw {
		values[i] = s
	}
	seeds := recommend.ParseSeeds(values)
	if len(seeds) == 0 {
		return fmt.Errorf("no valid seed IDs in %q", raw)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	limit := c.Int("limit")
	if limit <= 0 {
		limit = cfg.Recommend.DefaultLimit
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	recommender, err := engine.NewRecommender(recommendOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create recommender: %w", err)
	}
	defer recommender.Release()

	items, err := recommender.Recommend(c.Context, seeds, limit)
	if err != nil {
		return err
	}
	records := make([]core.BookRecord, len(items))
	for i, item := range items {
		records[i] = core.NewBookRecord(item)
	}
	return printJSON(c.App.Writer, records)
}

func getCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	item, err := engine.GetBook(c.Context, core.ID(c.Uint64("id")))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, core.NewBookRecord(item))
}

func importCommand(c *cli.Context) error {
	loaderConfig := &catalog.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Dimensions:     c.Int("dimensions"),
		Strict:         c.Bool("strict"),
	}
	if loaderConfig.BatchSize <= 0 {
		return errors.New("batch-size must be greater than 0")
	}
	if loaderConfig.ReportInterval <= 0 {
		return errors.New("report-interval must be greater than 0")
	}
	if loaderConfig.MaxRetries <= 0 {
		return errors.New("max-retries must be greater than 0")
	}
	if loaderConfig.Dimensions < 0 {
		return errors.New("dimensions cannot be negative")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	loader, err := engine.NewLoader(loaderConfig, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	path := c.String("file")
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(c.App.ErrWriter, "Catalog: %s\n", path)
	fmt.Fprintf(c.App.ErrWriter, "Batch size: %d\n", loaderConfig.BatchSize)
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := loader.LoadFile(c.Context, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Imported %d of %d records (%d skipped) in %s\n",
		stats.Loaded, stats.Read, stats.Skipped, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explainMonitor prints each search stage as it happens.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string, filters *core.FilterSpec) {
	fmt.Fprintf(m.w, "query: %q\n", query)
	if !filters.IsEmpty() {
		fmt.Fprintf(m.w, "filters: %s\n", filters)
	}
}

func (m *explainMonitor) AfterLexicalSearch(candidates core.CandidateSet, err error) {
	m.generator("lexical", candidates, err)
}

func (m *explainMonitor) AfterSemanticSearch(candidates core.CandidateSet, err error) {
	m.generator("semantic", candidates, err)
}

func (m *explainMonitor) generator(name string, candidates core.CandidateSet, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "%s: failed: %v\n", name, err)
		return
	}
	fmt.Fprintf(m.w, "%s: %d candidates\n", name, len(candidates))
	for _, cand := range candidates {
		fmt.Fprintf(m.w, "  %d [%0.3f]\n", cand.Id, cand.Score)
	}
}

func (m *explainMonitor) AfterFusion(fused core.FusedSet) {
	fmt.Fprintf(m.w, "fused: %d candidates\n", len(fused))
}

func (m *explainMonitor) AfterFilterStage(report search.StageReport) {
	suffix := ""
	if report.RolledBack {
		suffix = " (rolled back)"
	}
	fmt.Fprintf(m.w, "filter %s: %d -> %d%s\n", report.Stage, report.Before, report.After, suffix)
}

func (m *explainMonitor) AfterRerank(results []core.RankedResult) {
	fmt.Fprintf(m.w, "reranked: %d results\n", len(results))
}

func (m *explainMonitor) Finish(results []core.RankedResult, cached bool) {
	if cached {
		fmt.Fprintf(m.w, "served %d results from cache\n", len(results))
		return
	}
	fmt.Fprintf(m.w, "returned %d results\n", len(results))
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

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/japaniel/tango/pkg/analyzer"
	"github.com/japaniel/tango/pkg/config"
	"github.com/japaniel/tango/pkg/db"
	"github.com/japaniel/tango/pkg/dictionary"
	"github.com/japaniel/tango/pkg/ingest"
	"github.com/japaniel/tango/pkg/logging"
	"github.com/japaniel/tango/pkg/words"
)

var errUsage = errors.New("please provide -url, -file or -import-dict")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("tango failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	url        string
	file       string
	segment    bool
	dbPath     string
	importDict string
	version    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("tango", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to YAML config (default $TANGO_CONFIG or ./tango.yaml)")
	fs.StringVar(&o.url, "url", "", "URL of an article to process")
	fs.StringVar(&o.file, "file", "", "Path to a UTF-8 text file to process")
	fs.BoolVar(&o.segment, "segment", false, "Print the words of each sentence instead of storing them")
	fs.StringVar(&o.dbPath, "db", "", "Path to SQLite database (overrides config)")
	fs.StringVar(&o.importDict, "import-dict", "", "Path to JMdict-Simplified JSON file to import definitions")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "tango %s\n", analyzer.Version())
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	logger := logging.New(cfg.Log)

	if opts.importDict != "" {
		return importDictionary(ctx, cfg, opts.importDict, stdout, logger)
	}

	doc, err := loadDocument(ctx, cfg, opts)
	if err != nil {
		return err
	}
	logger.Info("document loaded", "title", doc.Title, "chars", len([]rune(doc.Text)))

	a, err := analyzer.NewAnalyzer()
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}
	a.Logger = logger

	if opts.segment {
		return printSegments(a, doc.Text, stdout)
	}
	return ingestDocument(ctx, cfg, a, doc, stdout, logger)
}

type document struct {
	sourceType string
	analyzer.Article
}

func loadDocument(ctx context.Context, cfg *config.Config, opts options) (document, error) {
	switch {
	case opts.url != "":
		article, err := analyzer.FetchArticle(ctx, opts.url, analyzer.FetchOptions{
			Timeout:      cfg.Fetch.Timeout,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
			UserAgent:    cfg.Fetch.UserAgent,
		})
		if err != nil {
			return document{}, err
		}
		return document{sourceType: "website_article", Article: article}, nil
	case opts.file != "":
		content, err := os.ReadFile(opts.file)
		if err != nil {
			return document{}, fmt.Errorf("read file: %w", err)
		}
		abs, err := filepath.Abs(opts.file)
		if err != nil {
			return document{}, fmt.Errorf("resolve file: %w", err)
		}
		// The absolute path identifies the source, so same-named files in
		// different directories keep separate checkpoints.
		fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		return document{
			sourceType: "text_file",
			Article: analyzer.Article{
				URL:   fileURL.String(),
				Title: filepath.Base(opts.file),
				Text:  string(content),
			},
		}, nil
	}
	return document{}, errUsage
}

func printSegments(a *analyzer.Analyzer, text string, stdout io.Writer) error {
	sentences, err := a.SegmentDocument(text)
	if err != nil {
		return err
	}
	for _, s := range sentences {
		fmt.Fprintln(stdout, words.Join(s.Words, " "))
	}
	return nil
}

func openDB(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	logger.Info("database ready", "path", cfg.Database.Path)
	return conn, nil
}

func importDictionary(ctx context.Context, cfg *config.Config, path string, stdout io.Writer, logger *slog.Logger) error {
	conn, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	entries, err := dictionary.LoadJMdictSimplified(path)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	logger.Info("dictionary loaded", "path", path, "entries", len(entries))

	count, err := dictionary.NewImporter(conn, entries, logger).ProcessUpdates(ctx)
	if err != nil {
		return fmt.Errorf("update definitions: %w", err)
	}
	fmt.Fprintf(stdout, "Updated definitions for %d words.\n", count)
	return nil
}

// loadDictionary returns nil when definitions are disabled or unavailable;
// ingestion then proceeds without them.
func loadDictionary(ctx context.Context, cfg config.DictionaryConfig, logger *slog.Logger) *dictionary.Importer {
	if cfg.Disabled {
		return nil
	}
	if !cfg.NoAutoDownload {
		if err := dictionary.EnsureDictionary(ctx, cfg.Path, logger); err != nil {
			logger.Warn("dictionary unavailable, continuing without definitions", "path", cfg.Path, "error", err)
			return nil
		}
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		logger.Warn("dictionary missing, continuing without definitions", "path", cfg.Path)
		return nil
	}

	start := time.Now()
	entries, err := dictionary.LoadJMdictSimplified(cfg.Path)
	if err != nil {
		logger.Warn("failed to load dictionary", "path", cfg.Path, "error", err)
		return nil
	}
	logger.Info("dictionary loaded", "entries", len(entries), "elapsed", time.Since(start))
	return dictionary.NewImporter(nil, entries, logger)
}

func ingestDocument(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer, doc document, stdout io.Writer, logger *slog.Logger) error {
	conn, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	dict := loadDictionary(ctx, cfg.Dictionary, logger)

	sourceID, err := db.CreateOrGetSource(conn, doc.sourceType, doc.Title, doc.Byline, doc.SiteName, doc.URL, "")
	if err != nil {
		return fmt.Errorf("persist source: %w", err)
	}
	fmt.Fprintf(stdout, "Title: %s\n", doc.Title)

	sentences := analyzer.Sentences(doc.Text)
	logger.Info("ingesting", "source_id", sourceID, "sentences", len(sentences))

	ingester := ingest.NewIngester(conn, dict, cfg.Ingest, logger)
	ingester.Analyzer = a
	ingester.OnProgress = func(current, total int) {
		logger.Debug("progress", "sentence", current, "total", total)
	}
	linkCount, err := ingester.Ingest(ctx, sourceID, sentences)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	fmt.Fprintf(stdout, "Processing complete. Linked %d word occurrences.\n", linkCount)

	counts, err := db.PartOfSpeechCounts(conn, sourceID)
	if err != nil {
		return err
	}
	pos := make([]string, 0, len(counts))
	for p := range counts {
		pos = append(pos, p)
	}
	sort.Strings(pos)
	for _, p := range pos {
		fmt.Fprintf(stdout, "  %-14s %d\n", p, counts[p])
	}
	return nil
}

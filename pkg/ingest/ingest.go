// Package ingest persists segmented sentences: words are counted per
// sentence on a worker pool and written in order through a batch writer,
// with a resumable per-source checkpoint.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/width"

	"github.com/japaniel/tango/pkg/analyzer"
	"github.com/japaniel/tango/pkg/config"
	"github.com/japaniel/tango/pkg/db"
	"github.com/japaniel/tango/pkg/dictionary"
	"github.com/japaniel/tango/pkg/logging"
	"github.com/japaniel/tango/pkg/words"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester handles the ingestion of sentences into the database.
type Ingester struct {
	DB           *sql.DB
	DictImporter *dictionary.Importer
	// Analyzer segments sentences that arrive without words. May be nil
	// when every sentence is already segmented.
	Analyzer *analyzer.Analyzer

	BatchSize     int
	FlushInterval time.Duration
	Workers       int
	Language      string

	Logger *slog.Logger
	// OnProgress is called periodically with the number of processed sentences and total sentences.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates an Ingester with the given ingest settings.
func NewIngester(conn *sql.DB, dict *dictionary.Importer, cfg config.IngestConfig, logger *slog.Logger) *Ingester {
	return &Ingester{
		DB:            conn,
		DictImporter:  dict,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Workers:       cfg.Workers,
		Language:      "ja",
		Logger:        logging.OrDiscard(logger),
	}
}

// wordData is one distinct word of a sentence.
type wordData struct {
	db.WordInput
	Count int
}

// processedSentence holds the result of processing a sentence before DB ingestion.
type processedSentence struct {
	Index    int
	Sentence string
	Words    []wordData
	Error    error
}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// Ingest processes sentences and saves them to the database using concurrent
// workers and batched writes. Sentences up to the source's checkpoint are
// skipped. It returns the number of word occurrences linked to the source.
func (ig *Ingester) Ingest(ctx context.Context, sourceID int64, sentences []analyzer.Sentence) (int, error) {
	logger := logging.OrDiscard(ig.Logger)

	lastProcessed, err := db.GetSourceProgress(ig.DB, sourceID)
	if err != nil {
		logger.Warn("failed to retrieve progress", "source_id", sourceID, "error", err)
		lastProcessed = -1
	}
	if lastProcessed >= 0 {
		logger.Info("resuming ingestion", "source_id", sourceID, "from_sentence", lastProcessed+1)
	}

	total := len(sentences)
	startIdx := lastProcessed + 1
	if startIdx >= total {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	// Room for every pending result, so workers never block on the consumer.
	resultCh := make(chan processedSentence, total-startIdx)
	doneCh := make(chan error, 1)
	var totalLinks int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bw := NewBatchWriter(ig.DB, ig.BatchSize, ig.FlushInterval, logger)
	// Later sentences would be dropped anyway; stop producing them.
	bw.OnError = func(error) { cancel() }

	wp.Start(ctx)

	go func() {
		doneCh <- ig.consume(resultCh, bw, sourceID, startIdx, total, &totalLinks, cancel)
	}()

	var producerErr error
Loop:
	for i := startIdx; i < total; i++ {
		if ctx.Err() != nil {
			break
		}

		idx := i
		sent := sentences[i]
		job := func(ctx context.Context) error {
			resultCh <- ig.processSentence(idx, sent)
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrPoolClosed):
			default:
				producerErr = fmt.Errorf("submit sentence %d: %w", idx, err)
				cancel()
			}
			break Loop
		}
	}

	// Workers are gone after Close, so no sends can race the close below.
	wp.Close()
	close(resultCh)

	consumerErr := <-doneCh
	closeErr := bw.Close()

	links := int(atomic.LoadInt64(&totalLinks))
	switch {
	case producerErr != nil:
		return links, producerErr
	case consumerErr != nil:
		return links, consumerErr
	case closeErr != nil:
		return links, closeErr
	}
	// Parent cancellation leaves the checkpoint at the last written sentence.
	if err := ctx.Err(); err != nil {
		return links, err
	}
	logger.Info("ingestion finished", "source_id", sourceID, "sentences", total-startIdx, "links", links)
	return links, nil
}

// consume writes results in sentence order. Results arrive out of order from
// the workers and wait in a buffer until their predecessors are written.
func (ig *Ingester) consume(resultCh <-chan processedSentence, bw *BatchWriter, sourceID int64,
	startIdx, total int, totalLinks *int64, cancel context.CancelFunc) error {
	buffer := make(map[int]processedSentence)
	nextIdx := startIdx
	var failed error

	for res := range resultCh {
		if failed != nil {
			continue
		}
		if res.Error != nil {
			failed = res.Error
			cancel()
			continue
		}
		buffer[res.Index] = res

		for {
			item, ok := buffer[nextIdx]
			if !ok {
				break
			}
			delete(buffer, nextIdx)

			if err := bw.Submit(ig.writeSentence(sourceID, item, totalLinks)); err != nil {
				failed = err
				cancel()
				break
			}
			if ig.OnProgress != nil && ig.BatchSize > 0 && (nextIdx+1)%ig.BatchSize == 0 {
				ig.OnProgress(nextIdx+1, total)
			}
			nextIdx++
		}
	}

	if failed != nil {
		return failed
	}
	if ig.OnProgress != nil && nextIdx == total {
		ig.OnProgress(total, total)
	}
	return nil
}

// writeSentence persists one sentence's words and moves the checkpoint to it.
func (ig *Ingester) writeSentence(sourceID int64, item processedSentence, totalLinks *int64) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, w := range item.Words {
			wordID, err := db.CreateOrGetWord(tx, w.WordInput)
			if err != nil {
				return fmt.Errorf("failed to persist word %s: %w", w.Word, err)
			}
			if err := db.LinkWordToSource(tx, wordID, sourceID, item.Sentence, item.Sentence, w.Count); err != nil {
				return fmt.Errorf("failed to link word %d: %w", wordID, err)
			}
			atomic.AddInt64(totalLinks, int64(w.Count))
		}
		if err := db.UpdateSourceProgress(tx, sourceID, item.Index); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		return nil
	}
}

// processSentence segments the sentence if needed, keeps the words worth
// learning and attaches their definitions.
func (ig *Ingester) processSentence(index int, sentence analyzer.Sentence) processedSentence {
	res := processedSentence{Index: index, Sentence: strings.TrimSpace(sentence.Text)}

	ws := sentence.Words
	if ws == nil && ig.Analyzer != nil {
		var err error
		ws, err = ig.Analyzer.Segment(sentence.Text)
		if analyzer.Unsupported(err) {
			// Stored with no words so the checkpoint still moves past it.
			logging.OrDiscard(ig.Logger).Warn("skipping unsupported sentence",
				"index", index, "sentence", res.Sentence, "error", err)
			return res
		}
		if err != nil {
			res.Error = fmt.Errorf("sentence %d: %w", index, err)
			return res
		}
	}

	type key struct{ surface, lemma string }
	counts := make(map[key]int)
	var ordered []key
	first := make(map[key]words.Word)

	for _, w := range ws {
		if !Learnable(w) {
			continue
		}
		lemma := w.Lemma
		if lemma == "" {
			lemma = w.Surface
		}
		k := key{w.Surface, lemma}
		if _, seen := counts[k]; !seen {
			ordered = append(ordered, k)
			first[k] = w
		}
		counts[k]++
	}

	for _, k := range ordered {
		w := first[k]
		in := db.WordInput{
			Word:          k.surface,
			Lemma:         k.lemma,
			PartOfSpeech:  w.PartOfSpeech.String(),
			Grammar:       string(w.Grammar),
			Reading:       dictionary.ToHiragana(w.Reading),
			Transcription: w.Transcription,
			Language:      ig.Language,
		}
		if ig.DictImporter != nil {
			defs, err := ig.DictImporter.DefinitionsFor(w)
			if err != nil {
				res.Error = fmt.Errorf("definitions for %s: %w", w.Surface, err)
				return res
			}
			in.Definitions = defs
		}
		res.Words = append(res.Words, wordData{WordInput: in, Count: counts[k]})
	}
	return res
}

// Learnable reports whether a word is stored as vocabulary. Punctuation,
// particles, numbers and ASCII-only surfaces (full-width included) are not.
func Learnable(w words.Word) bool {
	switch w.PartOfSpeech {
	case words.Symbol, words.Postposition, words.Number, words.Other:
		return false
	}
	return !asciiOnly.MatchString(width.Fold.String(w.Surface))
}

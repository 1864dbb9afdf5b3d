// Package analyzer wraps the kagome morphological analyzer and runs its
// output through feature parsing and word aggregation.
package analyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/tango/pkg/feature"
	"github.com/japaniel/tango/pkg/logging"
	"github.com/japaniel/tango/pkg/words"
)

// Version returns the current version of the package.
func Version() string { return "0.2.0" }

// Sentence is a piece of text together with the words it was segmented into.
type Sentence struct {
	Index int
	Text  string
	Words []words.Word
}

// Analyzer segments Japanese text into words. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer

	// Logger reports skipped sentences. May be nil.
	Logger *slog.Logger
}

// NewAnalyzer creates an analyzer backed by the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Morphemes runs the analyzer over a single sentence.
func (a *Analyzer) Morphemes(text string) []feature.RawMorpheme {
	tokens := a.t.Tokenize(text)
	result := make([]feature.RawMorpheme, 0, len(tokens))

	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		// Whitespace carries no word and would only produce symbol words.
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features:
		// 0: Part of Speech
		// 1-3: Sub-POS
		// 4: Conjugation Type
		// 5: Conjugation Form
		// 6: Base Form (Lemma)
		// 7: Reading
		// 8: Pronunciation
		result = append(result, feature.RawMorpheme{
			Surface: token.Surface,
			Feature: strings.Join(token.Features(), ","),
		})
	}
	return result
}

// Segment splits a single sentence into words.
func (a *Analyzer) Segment(text string) ([]words.Word, error) {
	tokens, err := feature.ParseTokens(a.Morphemes(text))
	if err != nil {
		return nil, fmt.Errorf("parse tokens: %w", err)
	}
	ws, err := words.AggregateWords(tokens)
	if err != nil {
		return nil, fmt.Errorf("aggregate words: %w", err)
	}
	return ws, nil
}

// Unsupported reports whether err from Segment means the word rules do not
// cover the sentence. Such a sentence is skipped rather than failing its
// document.
func Unsupported(err error) bool {
	var pe *feature.ParseError
	return errors.As(err, &pe) ||
		errors.Is(err, words.ErrUnresolvedPartOfSpeech) ||
		errors.Is(err, words.ErrMissingLookaheadToken)
}

// SegmentDocument splits the text into sentences and segments each one.
// Unsupported sentences are logged and left out, keeping their neighbors'
// indexes; any other error aborts the call.
func (a *Analyzer) SegmentDocument(text string) ([]Sentence, error) {
	var result []Sentence
	for _, s := range Sentences(text) {
		ws, err := a.Segment(s.Text)
		if Unsupported(err) {
			logging.OrDiscard(a.Logger).Warn("skipping unsupported sentence",
				"index", s.Index, "sentence", strings.TrimSpace(s.Text), "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sentence %d %q: %w", s.Index, strings.TrimSpace(s.Text), err)
		}
		s.Words = ws
		result = append(result, s)
	}
	return result, nil
}

// Sentences splits text into indexed, non-blank sentences without
// segmenting them.
func Sentences(text string) []Sentence {
	var result []Sentence
	for _, s := range SplitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		result = append(result, Sentence{Index: len(result), Text: s})
	}
	return result
}

// SplitSentences splits text after 。！？ and newlines, keeping the
// delimiter with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

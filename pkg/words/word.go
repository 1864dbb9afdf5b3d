// Package words groups parsed morphemes into words: verb stems with their
// auxiliaries, sahen nouns with する, numerals with numerals, nouns with
// their suffixes, and so on.
package words

import (
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/tango/pkg/feature"
)

// PartOfSpeech is the coarse category assigned to a word.
type PartOfSpeech string

const (
	Noun         PartOfSpeech = "NOUN"
	ProperNoun   PartOfSpeech = "PROPER_NOUN"
	Pronoun      PartOfSpeech = "PRONOUN"
	Adjective    PartOfSpeech = "ADJECTIVE"
	Adverb       PartOfSpeech = "ADVERB"
	Determiner   PartOfSpeech = "DETERMINER"
	Prefix       PartOfSpeech = "PREFIX"
	Postposition PartOfSpeech = "POSTPOSITION"
	Verb         PartOfSpeech = "VERB"
	Suffix       PartOfSpeech = "SUFFIX"
	Conjunction  PartOfSpeech = "CONJUNCTION"
	Interjection PartOfSpeech = "INTERJECTION"
	Number       PartOfSpeech = "NUMBER"
	Symbol       PartOfSpeech = "SYMBOL"
	Other        PartOfSpeech = "OTHER"
	Unknown      PartOfSpeech = "UNKNOWN"
)

func (p PartOfSpeech) String() string { return string(p) }

func (p PartOfSpeech) IsValid() bool {
	switch p {
	case Noun, ProperNoun, Pronoun, Adjective, Adverb, Determiner, Prefix,
		Postposition, Verb, Suffix, Conjunction, Interjection, Number,
		Symbol, Other, Unknown:
		return true
	}
	return false
}

// Grammar marks words formed by the auxiliary-stem and nominal verb rules.
// The zero value means no grammar tag.
type Grammar string

const (
	GrammarNone      Grammar = ""
	GrammarAuxiliary Grammar = "AUXILIARY"
	GrammarNominal   Grammar = "NOMINAL"
)

// Sentinel errors returned (wrapped in an *AggregationError) by AggregateWords.
var (
	ErrUnresolvedPartOfSpeech = errors.New("part of speech could not be resolved")
	ErrMissingLookaheadToken  = errors.New("rule requires a following token")
)

// AggregationError identifies the token the aggregator stopped at.
type AggregationError struct {
	Index   int
	Surface string
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("token %d %q: %v", e.Index, e.Surface, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// Word is one or more contiguous tokens read as a single unit.
//
// Surface, Reading and Transcription are always the concatenation of the
// corresponding fields of Tokens. Lemma starts as the first token's lemma
// and only grows when a rule extends it.
type Word struct {
	Surface       string
	Lemma         string
	PartOfSpeech  PartOfSpeech
	Tokens        []feature.Token
	Reading       string
	Transcription string
	Grammar       Grammar
}

func newWord(tok feature.Token, pos PartOfSpeech, grammar Grammar) Word {
	return Word{
		Surface:       tok.Literal,
		Lemma:         tok.Lemma,
		PartOfSpeech:  pos,
		Tokens:        []feature.Token{tok},
		Reading:       tok.Reading,
		Transcription: tok.Transcription,
		Grammar:       grammar,
	}
}

// absorb appends tok to the word, extending the lemma only when asked.
func (w *Word) absorb(tok feature.Token, extendLemma bool) {
	w.Surface += tok.Literal
	w.Reading += tok.Reading
	w.Transcription += tok.Transcription
	if extendLemma {
		w.Lemma += tok.Lemma
	}
	w.Tokens = append(w.Tokens, tok)
}

// Join concatenates the surfaces of ws separated by sep.
func Join(ws []Word, sep string) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.Surface
	}
	return strings.Join(parts, sep)
}

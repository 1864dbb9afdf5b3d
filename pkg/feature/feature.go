// Package feature turns the raw (surface, feature string) pairs emitted by
// the morphological analyzer into typed tokens.
//
// The feature string follows the IPADIC schema: primary part of speech,
// three sub-category levels, inflection type, inflection form, lemma,
// reading and pronunciation, comma separated in that order.
package feature

import (
	"errors"
	"fmt"
	"strings"
)

// MinFields is the number of leading tag fields every feature string must carry.
const MinFields = 6

// Positions of the optional text fields in the feature string.
const (
	lemmaField         = 6
	readingField       = 7
	transcriptionField = 8
)

// Sentinel errors returned (wrapped in a *ParseError) by ParseTokens.
var (
	ErrMalformedFeature       = errors.New("malformed feature")
	ErrUnrecognizedPrimaryPos = errors.New("unrecognized primary part of speech")
)

// ParseError identifies the morpheme that could not be parsed.
type ParseError struct {
	Index   int
	Surface string
	Feature string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d %q (%s): %v", e.Index, e.Surface, e.Feature, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RawMorpheme is one analyzer result.
type RawMorpheme struct {
	Surface string
	Feature string
}

// Token is a parsed morpheme. Tokens are never mutated after ParseTokens
// returns them.
type Token struct {
	Literal        string
	Pos            PosTag
	Pos2           PosTag
	Pos3           PosTag
	Pos4           PosTag
	InflectionType PosTag
	InflectionForm PosTag
	Lemma          string
	Reading        string
	Transcription  string
}

// ParseTokens parses every morpheme, preserving order. The first failure
// aborts the whole call.
func ParseTokens(raw []RawMorpheme) ([]Token, error) {
	tokens := make([]Token, 0, len(raw))
	for i, m := range raw {
		tok, err := Parse(m)
		if err != nil {
			return nil, &ParseError{Index: i, Surface: m.Surface, Feature: m.Feature, Err: err}
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Parse parses a single morpheme. Errors are the bare sentinels; ParseTokens
// adds the position.
func Parse(m RawMorpheme) (Token, error) {
	fields := strings.Split(m.Feature, ",")
	if len(fields) < MinFields {
		return Token{}, fmt.Errorf("%w: %d fields, need at least %d", ErrMalformedFeature, len(fields), MinFields)
	}

	pos := LookupTag(fields[0])
	if !pos.IsPrimary() {
		return Token{}, fmt.Errorf("%w: %q", ErrUnrecognizedPrimaryPos, fields[0])
	}

	return Token{
		Literal:        m.Surface,
		Pos:            pos,
		Pos2:           LookupTag(fields[1]),
		Pos3:           LookupTag(fields[2]),
		Pos4:           LookupTag(fields[3]),
		InflectionType: LookupTag(fields[4]),
		InflectionForm: LookupTag(fields[5]),
		Lemma:          optional(fields, lemmaField),
		Reading:        optional(fields, readingField),
		Transcription:  optional(fields, transcriptionField),
	}, nil
}

// optional returns the field at i, or "" when it is missing or the wildcard.
func optional(fields []string, i int) string {
	if i >= len(fields) || fields[i] == "*" {
		return ""
	}
	return fields[i]
}

// Package dictionary loads JMdict (jmdict-simplified JSON) and attaches
// English definitions to segmented words.
package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	ID    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// DefinitionEntry is one element of the JSON list stored in words.definitions.
type DefinitionEntry struct {
	Senses []string `json:"senses"`
	POS    []string `json:"pos"`
}

// LoadJMdictSimplified reads a dictionary file, either the release format
// { "words": [...] } or a bare array of entries.
func LoadJMdictSimplified(path string) ([]JMdictEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := DecodeJMdict(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return entries, nil
}

// DecodeJMdict streams entries out of r. Release files are tens of megabytes,
// so entries are decoded one at a time instead of through an intermediate tree.
func DecodeJMdict(r io.Reader) ([]JMdictEntry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	switch tok {
	case json.Delim('['):
		return decodeEntries(dec)
	case json.Delim('{'):
	default:
		return nil, fmt.Errorf("failed to parse dictionary as object or array: unexpected %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "words" {
			// Skip metadata such as version, languages and tags.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		open, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if open != json.Delim('[') {
			return nil, fmt.Errorf("words: expected array, got %v", open)
		}
		return decodeEntries(dec)
	}
	return nil, fmt.Errorf("dictionary has no words")
}

func decodeEntries(dec *json.Decoder) ([]JMdictEntry, error) {
	var entries []JMdictEntry
	for dec.More() {
		var e JMdictEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

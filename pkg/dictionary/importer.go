package dictionary

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/japaniel/tango/pkg/db"
	"github.com/japaniel/tango/pkg/logging"
	"github.com/japaniel/tango/pkg/words"
)

// Importer matches words against an in-memory JMdict index.
// The index is never mutated after NewImporter, so lookups are safe for
// concurrent use.
type Importer struct {
	conn   *sql.DB
	logger *slog.Logger
	// Kanji or kana text -> entries containing it.
	index map[string][]JMdictEntry
}

// NewImporter creates an importer and builds an in-memory index of the provided dictionary.
// conn is only needed by ProcessUpdates and may be nil.
func NewImporter(conn *sql.DB, entries []JMdictEntry, logger *slog.Logger) *Importer {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Importer{
		conn:   conn,
		logger: logging.OrDiscard(logger),
		index:  idx,
	}
}

// Size returns the number of indexed spellings.
func (im *Importer) Size() int { return len(im.index) }

// ProcessUpdates finds definitions for stored words that have none yet.
func (im *Importer) ProcessUpdates(ctx context.Context) (int, error) {
	if im.conn == nil {
		return 0, fmt.Errorf("importer has no database")
	}
	rows, err := im.conn.QueryContext(ctx, `SELECT id, word, lemma, pronunciation FROM words
		WHERE definitions IS NULL OR definitions = ''`)
	if err != nil {
		return 0, err
	}

	type update struct {
		id  int64
		def string
	}
	var updates []update

	for rows.Next() {
		var id int64
		var word string
		var lemma, pronunciation sql.NullString
		if err := rows.Scan(&id, &word, &lemma, &pronunciation); err != nil {
			rows.Close()
			return 0, err
		}

		matches := im.findMatches(word, lemma.String, pronunciation.String)
		if len(matches) == 0 {
			// Inflected words carry the reading of the whole surface, which
			// never equals the dictionary reading of the lemma.
			matches = im.findMatches(word, lemma.String, "")
		}
		if len(matches) == 0 {
			continue
		}

		defJSON, err := FormatDefinitions(matches)
		if err != nil {
			im.logger.Warn("format definitions", "word", word, "error", err)
			continue
		}
		updates = append(updates, update{id, defJSON})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	// Release the connection before writing; in-memory databases only have one.
	rows.Close()

	updatedCount := 0
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return updatedCount, err
		}
		if err := db.UpdateWordDefinitions(im.conn, u.id, u.def); err != nil {
			im.logger.Warn("update word definitions", "word_id", u.id, "error", err)
			continue
		}
		updatedCount++
	}

	im.logger.Info("dictionary updates applied", "candidates", len(updates), "updated", updatedCount)
	return updatedCount, nil
}

// LookupWord finds entries for a segmented word. Multi-token words are
// matched by their lemma and the reading of their head token.
func (im *Importer) LookupWord(w words.Word) []JMdictEntry {
	reading := w.Reading
	if len(w.Tokens) > 1 {
		reading = w.Tokens[0].Reading
	}
	if m := im.findMatches(w.Surface, w.Lemma, reading); len(m) > 0 {
		return m
	}
	return im.findMatches(w.Surface, w.Lemma, "")
}

// DefinitionsFor returns the definitions JSON for w, or "" when nothing matches.
func (im *Importer) DefinitionsFor(w words.Word) (string, error) {
	matches := im.LookupWord(w)
	if len(matches) == 0 {
		return "", nil
	}
	return FormatDefinitions(matches)
}

// findMatches looks the surface and lemma up, keeps entries whose kana agree
// with pronunciation (when given), and orders them by entry id.
func (im *Importer) findMatches(word, lemma, pronunciation string) []JMdictEntry {
	candidates := make(map[string]JMdictEntry)
	for _, term := range []string{word, lemma} {
		if term == "" {
			continue
		}
		for _, e := range im.index[term] {
			candidates[e.ID] = e
		}
	}

	var results []JMdictEntry
	for _, entry := range candidates {
		if isMatch(entry, word, lemma, pronunciation) {
			results = append(results, entry)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

func isMatch(entry JMdictEntry, word, lemma, pronunciation string) bool {
	hasText := false
	for _, k := range entry.Kanji {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	// Kana-only words have no kanji element.
	for _, k := range entry.Kana {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	if !hasText {
		return false
	}
	if pronunciation == "" {
		return true
	}

	normalizedPron := ToHiragana(pronunciation)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == normalizedPron {
			return true
		}
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// FormatDefinitions flattens each entry into its glosses and distinct
// part-of-speech tags and encodes the list as JSON.
func FormatDefinitions(entries []JMdictEntry) (string, error) {
	defs := make([]DefinitionEntry, 0, len(entries))

	for _, e := range entries {
		var senses, poses []string
		seen := make(map[string]bool)
		for _, s := range e.Sense {
			for _, g := range s.Gloss {
				senses = append(senses, g.Text)
			}
			for _, p := range s.PartOfSpeech {
				if !seen[p] {
					seen[p] = true
					poses = append(poses, p)
				}
			}
		}
		defs = append(defs, DefinitionEntry{Senses: senses, POS: poses})
	}

	bytes, err := json.Marshal(defs)
	return string(bytes), err
}

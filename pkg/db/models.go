package db

import "time"

// Word is the canonical word entry.
type Word struct {
	ID            int64
	Word          string
	Lemma         string
	Language      string
	PartOfSpeech  string
	Grammar       string
	Pronunciation string
	Transcription string
	Definitions   string
	ImageURL      string
	MnemonicText  string
}

// WordInput is what ingestion knows about a word when it first sees it.
type WordInput struct {
	Word          string
	Lemma         string
	PartOfSpeech  string
	Grammar       string
	Reading       string
	Transcription string
	Definitions   string
	Language      string
}

// Source is a provenance record for where a word was seen.
type Source struct {
	ID         int64
	SourceType string
	Title      string
	Author     string
	Website    string
	URL        string
	Meta       string
	AddedAt    time.Time
}

// WordSource links a Word with a Source and holds contextual metadata.
type WordSource struct {
	ID              int64
	WordID          int64
	SourceID        int64
	ContextSentence string
	ExampleSentence string
	OccurrenceCount int
	FirstSeenAt     time.Time
	IsPrimary       bool
}

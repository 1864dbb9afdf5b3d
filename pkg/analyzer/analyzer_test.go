package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/tango/pkg/feature"
	"github.com/japaniel/tango/pkg/words"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	require.NoError(t, err, "failed to create analyzer")
	return a
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
}

func TestMorphemesFollowIPASchema(t *testing.T) {
	a := newAnalyzer(t)

	raw := a.Morphemes("私は 猫が好きです。")
	require.NotEmpty(t, raw)

	for _, m := range raw {
		assert.NotEmpty(t, strings.TrimSpace(m.Surface), "whitespace morphemes are dropped")
		fields := strings.Split(m.Feature, ",")
		assert.GreaterOrEqual(t, len(fields), feature.MinFields, "feature %q", m.Feature)
	}
	assert.Equal(t, "私", raw[0].Surface)
	assert.True(t, strings.HasPrefix(raw[0].Feature, "名詞,代名詞"), raw[0].Feature)
}

func TestSegment(t *testing.T) {
	a := newAnalyzer(t)

	ws, err := a.Segment("日本語を勉強しました。")
	require.NoError(t, err)
	assert.Equal(t, "日本語 を 勉強しました 。", words.Join(ws, " "))

	verb := ws[2]
	assert.Equal(t, words.Verb, verb.PartOfSpeech)
	assert.Equal(t, "勉強", verb.Lemma)
	assert.Equal(t, "ベンキョウシマシタ", verb.Reading)
}

func TestSegmentPronoun(t *testing.T) {
	a := newAnalyzer(t)

	ws, err := a.Segment("私は学生です。")
	require.NoError(t, err)
	require.NotEmpty(t, ws)
	assert.Equal(t, "私", ws[0].Surface)
	assert.Equal(t, words.Pronoun, ws[0].PartOfSpeech)
}

func TestSegmentDocument(t *testing.T) {
	a := newAnalyzer(t)

	text := "子どもたちは公園で遊んでいます。\n\n三千人が集まりました！本当ですか？"
	sentences, err := a.SegmentDocument(text)
	require.NoError(t, err)
	require.Len(t, sentences, 3)

	for i, s := range sentences {
		assert.Equal(t, i, s.Index)
		require.NotEmpty(t, s.Words, "sentence %q", s.Text)

		var joined strings.Builder
		for _, w := range s.Words {
			joined.WriteString(w.Surface)
		}
		want := strings.Join(strings.Fields(s.Text), "")
		assert.Equal(t, want, joined.String())
	}
	assert.Equal(t, "子どもたちは公園で遊んでいます。", sentences[0].Text)
}

func TestSegmentDocumentSkipsUnsupported(t *testing.T) {
	a := newAnalyzer(t)

	_, err := a.Segment("まるで猫みたい")
	require.ErrorIs(t, err, words.ErrMissingLookaheadToken)

	sentences, err := a.SegmentDocument("今日は晴れ。\nまるで猫みたい\n明日も晴れ。")
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, 0, sentences[0].Index)
	assert.Equal(t, "今日は晴れ。", sentences[0].Text)
	assert.Equal(t, 2, sentences[1].Index)
	assert.Equal(t, "明日も晴れ。", sentences[1].Text)
	assert.NotEmpty(t, sentences[1].Words)
}

func TestUnsupported(t *testing.T) {
	parseErr := &feature.ParseError{Surface: "x", Err: feature.ErrMalformedFeature}
	aggErr := &words.AggregationError{Err: words.ErrUnresolvedPartOfSpeech}

	assert.True(t, Unsupported(fmt.Errorf("parse tokens: %w", parseErr)))
	assert.True(t, Unsupported(fmt.Errorf("aggregate words: %w", aggErr)))
	assert.True(t, Unsupported(words.ErrMissingLookaheadToken))
	assert.False(t, Unsupported(nil))
	assert.False(t, Unsupported(errors.New("disk full")))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"no delimiter", "こんにちは", []string{"こんにちは"}},
		{"mixed", "はい。いいえ！本当？\n続き", []string{"はい。", "いいえ！", "本当？", "\n", "続き"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("一。\n\n二！ \n")
	require.Len(t, got, 2)
	assert.Equal(t, Sentence{Index: 0, Text: "一。"}, got[0])
	assert.Equal(t, Sentence{Index: 1, Text: "二！"}, got[1])
}

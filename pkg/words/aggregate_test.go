package words

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/tango/pkg/feature"
)

// tokens builds tokens from "surface\tfeature" lines.
func tokens(t *testing.T, lines ...string) []feature.Token {
	t.Helper()
	raw := make([]feature.RawMorpheme, 0, len(lines))
	for _, l := range lines {
		surface, feat, ok := strings.Cut(l, "\t")
		require.True(t, ok, "bad fixture line %q", l)
		raw = append(raw, feature.RawMorpheme{Surface: surface, Feature: feat})
	}
	toks, err := feature.ParseTokens(raw)
	require.NoError(t, err)
	return toks
}

func surfaces(ws []Word) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Surface
	}
	return out
}

func TestAggregateAuxiliaryFusion(t *testing.T) {
	toks := tokens(t,
		"行っ\t動詞,自立,*,*,五段・カ行促音便,連用タ接続,行く,イッ,イッ",
		"た\t助動詞,*,*,*,特殊・タ,基本形,た,タ,タ",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	require.Len(t, ws, 1)

	w := ws[0]
	assert.Equal(t, "行った", w.Surface)
	assert.Equal(t, "行く", w.Lemma)
	assert.Equal(t, Verb, w.PartOfSpeech)
	assert.Equal(t, "イッタ", w.Reading)
	assert.Equal(t, "イッタ", w.Transcription)
	assert.Len(t, w.Tokens, 2)
	assert.Equal(t, GrammarNone, w.Grammar)
}

func TestAggregatePoliteNegativePast(t *testing.T) {
	toks := tokens(t,
		"食べ\t動詞,自立,*,*,一段,連用形,食べる,タベ,タベ",
		"ませ\t助動詞,*,*,*,特殊・マス,未然形,ます,マセ,マセ",
		"ん\t助動詞,*,*,*,不変化型,基本形,ん,ン,ン",
		"でし\t助動詞,*,*,*,特殊・デス,連用形,です,デシ,デシ",
		"た\t助動詞,*,*,*,特殊・タ,基本形,た,タ,タ",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	assert.Equal(t, []string{"食べません", "でした"}, surfaces(ws))
	assert.Equal(t, Verb, ws[0].PartOfSpeech)
	assert.Equal(t, "食べる", ws[0].Lemma)
	assert.Equal(t, Verb, ws[1].PartOfSpeech)
	assert.Equal(t, "です", ws[1].Lemma)
}

func TestAggregateAuxiliaryAfterBindingParticle(t *testing.T) {
	toks := tokens(t,
		"は\t助詞,係助詞,*,*,*,*,は,ハ,ワ",
		"ない\t助動詞,*,*,*,特殊・ナイ,基本形,ない,ナイ,ナイ",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	assert.Equal(t, []string{"は", "ない"}, surfaces(ws))
	assert.Equal(t, Postposition, ws[1].PartOfSpeech)
}

func TestAggregateLeadingAuxiliaryStartsWord(t *testing.T) {
	toks := tokens(t, "た\t助動詞,*,*,*,特殊・タ,基本形,た,タ,タ")
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, Postposition, ws[0].PartOfSpeech)
}

func TestAggregateCopula(t *testing.T) {
	toks := tokens(t,
		"猫\t名詞,一般,*,*,*,*,猫,ネコ,ネコ",
		"だ\t助動詞,*,*,*,特殊・ダ,基本形,だ,ダ,ダ",
		"な\t助動詞,*,*,*,特殊・ダ,体言接続,だ,ナ,ナ",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	require.Len(t, ws, 3)
	assert.Equal(t, Noun, ws[0].PartOfSpeech)
	assert.Equal(t, Verb, ws[1].PartOfSpeech)
	assert.Equal(t, Postposition, ws[2].PartOfSpeech)
}

func TestAggregateSahenVerb(t *testing.T) {
	toks := tokens(t,
		"勉強\t名詞,サ変接続,*,*,*,*,勉強,ベンキョウ,ベンキョー",
		"し\t動詞,自立,*,*,サ変・スル,連用形,する,シ,シ",
		"た\t助動詞,*,*,*,特殊・タ,基本形,た,タ,タ",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	w := ws[0]
	assert.Equal(t, "勉強した", w.Surface)
	assert.Equal(t, Verb, w.PartOfSpeech)
	assert.Equal(t, "勉強", w.Lemma)
	assert.Equal(t, "ベンキョウシタ", w.Reading)
	assert.Equal(t, "ベンキョーシタ", w.Transcription)
	assert.Len(t, w.Tokens, 3)
}

func TestAggregateAdjectivalNoun(t *testing.T) {
	t.Run("adnominal copula is consumed", func(t *testing.T) {
		toks := tokens(t,
			"静か\t名詞,形容動詞語幹,*,*,*,*,静か,シズカ,シズカ",
			"な\t助動詞,*,*,*,特殊・ダ,体言接続,だ,ナ,ナ",
			"町\t名詞,一般,*,*,*,*,町,マチ,マチ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"静かな", "町"}, surfaces(ws))
		assert.Equal(t, Adjective, ws[0].PartOfSpeech)
		assert.Equal(t, "静か", ws[0].Lemma)
	})

	t.Run("predicative copula stays separate", func(t *testing.T) {
		toks := tokens(t,
			"静か\t名詞,形容動詞語幹,*,*,*,*,静か,シズカ,シズカ",
			"だ\t助動詞,*,*,*,特殊・ダ,基本形,だ,ダ,ダ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"静か", "だ"}, surfaces(ws))
		assert.Equal(t, Adjective, ws[0].PartOfSpeech)
		assert.Equal(t, Verb, ws[1].PartOfSpeech)
	})

	t.Run("nai stem", func(t *testing.T) {
		toks := tokens(t,
			"だらし\t名詞,ナイ形容詞語幹,*,*,*,*,だらし,ダラシ,ダラシ",
			"ない\t助動詞,*,*,*,特殊・ナイ,基本形,ない,ナイ,ナイ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, "だらしない", ws[0].Surface)
		assert.Equal(t, Adjective, ws[0].PartOfSpeech)
	})

	t.Run("adverbial ni", func(t *testing.T) {
		toks := tokens(t,
			"静か\t名詞,形容動詞語幹,*,*,*,*,静か,シズカ,シズカ",
			"に\t助詞,副詞化,*,*,*,*,に,ニ,ニ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"静か", "に"}, surfaces(ws))
		assert.Equal(t, Adverb, ws[0].PartOfSpeech)
	})

	t.Run("at end of sequence", func(t *testing.T) {
		toks := tokens(t, "勉強\t名詞,サ変接続,*,*,*,*,勉強,ベンキョウ,ベンキョー")
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, Noun, ws[0].PartOfSpeech)
	})
}

func TestAggregateDependentNouns(t *testing.T) {
	t.Run("adverbial possible with ni", func(t *testing.T) {
		toks := tokens(t,
			"よう\t名詞,非自立,副詞可能,*,*,*,よう,ヨウ,ヨー",
			"に\t助詞,格助詞,一般,*,*,*,に,ニ,ニ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, "ように", ws[0].Surface)
		assert.Equal(t, Adverb, ws[0].PartOfSpeech)
		assert.Equal(t, "よう", ws[0].Lemma)
	})

	t.Run("aux stem with adnominal copula", func(t *testing.T) {
		toks := tokens(t,
			"そう\t名詞,特殊,助動詞語幹,*,*,*,そう,ソウ,ソー",
			"な\t助動詞,*,*,*,特殊・ダ,体言接続,だ,ナ,ナ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, Verb, ws[0].PartOfSpeech)
		assert.Equal(t, GrammarAuxiliary, ws[0].Grammar)
	})

	t.Run("aux stem with predicative copula", func(t *testing.T) {
		toks := tokens(t,
			"そう\t名詞,特殊,助動詞語幹,*,*,*,そう,ソウ,ソー",
			"だ\t助動詞,*,*,*,特殊・ダ,基本形,だ,ダ,ダ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"そう", "だ"}, surfaces(ws))
		assert.Equal(t, GrammarAuxiliary, ws[0].Grammar)
	})

	t.Run("aux stem with adverbializing particle", func(t *testing.T) {
		toks := tokens(t,
			"そう\t名詞,特殊,助動詞語幹,*,*,*,そう,ソウ,ソー",
			"に\t助詞,副詞化,*,*,*,*,に,ニ,ニ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, Adverb, ws[0].PartOfSpeech)
	})

	t.Run("adjectival stem with adnominaliser", func(t *testing.T) {
		toks := tokens(t,
			"みたい\t名詞,非自立,形容動詞語幹,*,*,*,みたい,ミタイ,ミタイ",
			"の\t助詞,連体化,*,*,*,*,の,ノ,ノ",
			"猫\t名詞,一般,*,*,*,*,猫,ネコ,ネコ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"みたいの", "猫"}, surfaces(ws))
		assert.Equal(t, Adjective, ws[0].PartOfSpeech)
	})

	t.Run("adjectival stem without match", func(t *testing.T) {
		toks := tokens(t,
			"みたい\t名詞,非自立,形容動詞語幹,*,*,*,みたい,ミタイ,ミタイ",
			"。\t記号,句点,*,*,*,*,。,。,。",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"みたい", "。"}, surfaces(ws))
		assert.Equal(t, Adjective, ws[0].PartOfSpeech)
	})
}

func TestAggregateNumeralChaining(t *testing.T) {
	toks := tokens(t,
		"3\t名詞,数,*,*,*,*,3,サン,サン",
		"000\t名詞,数,*,*,*,*,000,ゼロゼロゼロ,ゼロゼロゼロ",
		"人\t名詞,接尾,助数詞,*,*,*,人,ニン,ニン",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	w := ws[0]
	assert.Equal(t, "3000人", w.Surface)
	assert.Equal(t, "3000人", w.Lemma)
	assert.Equal(t, Number, w.PartOfSpeech)
	assert.Len(t, w.Tokens, 3)
}

func TestAggregateNumeralAfterNonNumber(t *testing.T) {
	toks := tokens(t,
		"第\t接頭詞,数接続,*,*,*,*,第,ダイ,ダイ",
		"3\t名詞,数,*,*,*,*,3,サン,サン",
	)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	assert.Equal(t, []string{"第", "3"}, surfaces(ws))
	assert.Equal(t, Prefix, ws[0].PartOfSpeech)
	assert.Equal(t, Number, ws[1].PartOfSpeech)
}

func TestAggregateSuffixes(t *testing.T) {
	t.Run("lemma extension", func(t *testing.T) {
		toks := tokens(t,
			"子ども\t名詞,一般,*,*,*,*,子ども,コドモ,コドモ",
			"たち\t名詞,接尾,一般,*,*,*,たち,タチ,タチ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		w := ws[0]
		assert.Equal(t, "子どもたち", w.Surface)
		assert.Equal(t, "子どもたち", w.Lemma)
		assert.Equal(t, "コドモタチ", w.Reading)
		assert.Equal(t, Noun, w.PartOfSpeech)
	})

	t.Run("person name suffix", func(t *testing.T) {
		toks := tokens(t,
			"田中\t名詞,固有名詞,人名,姓,*,*,田中,タナカ,タナカ",
			"さん\t名詞,接尾,人名,*,*,*,さん,サン,サン",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"田中", "さん"}, surfaces(ws))
		assert.Equal(t, ProperNoun, ws[0].PartOfSpeech)
		assert.Equal(t, Suffix, ws[1].PartOfSpeech)
	})

	t.Run("sa nominalises", func(t *testing.T) {
		toks := tokens(t,
			"高\t形容詞,自立,*,*,形容詞・アウオ段,ガル接続,高い,タカ,タカ",
			"さ\t名詞,接尾,特殊,*,*,*,さ,サ,サ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, "高さ", ws[0].Surface)
		assert.Equal(t, "高い", ws[0].Lemma)
		assert.Equal(t, Noun, ws[0].PartOfSpeech)
	})
}

func TestAggregateVerbs(t *testing.T) {
	t.Run("dependent verb attaches", func(t *testing.T) {
		toks := tokens(t,
			"し\t動詞,自立,*,*,サ変・スル,連用形,する,シ,シ",
			"て\t助詞,接続助詞,*,*,*,*,て,テ,テ",
			"いる\t動詞,非自立,*,*,一段,基本形,いる,イル,イル",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, "している", ws[0].Surface)
		assert.Equal(t, "する", ws[0].Lemma)
		assert.Equal(t, Verb, ws[0].PartOfSpeech)
	})

	t.Run("dependent imperative stands alone", func(t *testing.T) {
		toks := tokens(t,
			"見\t動詞,自立,*,*,一段,連用形,見る,ミ,ミ",
			"て\t助詞,接続助詞,*,*,*,*,て,テ,テ",
			"くれ\t動詞,非自立,*,*,一段・クレル,命令ｉ,くれる,クレ,クレ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"見て", "くれ"}, surfaces(ws))
	})

	t.Run("suffix verb attaches", func(t *testing.T) {
		toks := tokens(t,
			"子供\t名詞,一般,*,*,*,*,子供,コドモ,コドモ",
			"っぽ\t形容詞,接尾,*,*,形容詞・アウオ段,ガル接続,っぽい,ッポ,ッポ",
			"がる\t動詞,接尾,*,*,五段・ラ行,基本形,がる,ガル,ガル",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"子供", "っぽがる"}, surfaces(ws))
		assert.Equal(t, Verb, ws[1].PartOfSpeech)
	})

	t.Run("other conjunctive particles start words", func(t *testing.T) {
		toks := tokens(t,
			"行く\t動詞,自立,*,*,五段・カ行促音便,基本形,行く,イク,イク",
			"から\t助詞,接続助詞,*,*,*,*,から,カラ,カラ",
		)
		ws, err := AggregateWords(toks)
		require.NoError(t, err)
		assert.Equal(t, []string{"行く", "から"}, surfaces(ws))
		assert.Equal(t, Postposition, ws[1].PartOfSpeech)
	})
}

func TestAggregateSimpleCategories(t *testing.T) {
	tests := []struct {
		line    string
		pos     PartOfSpeech
		grammar Grammar
	}{
		{"彼\t名詞,代名詞,一般,*,*,*,彼,カレ,カレ", Pronoun, GrammarNone},
		{"東京\t名詞,固有名詞,地域,一般,*,*,東京,トウキョウ,トーキョー", ProperNoun, GrammarNone},
		{"ため\t名詞,非自立,副詞可能,*,*,*,ため,タメ,タメ", Noun, GrammarNone},
		{"および\t名詞,接続詞的,*,*,*,*,および,オヨビ,オヨビ", Conjunction, GrammarNone},
		{"ごらん\t名詞,動詞非自立的,*,*,*,*,ごらん,ゴラン,ゴラン", Verb, GrammarNominal},
		{"お\t接頭詞,名詞接続,*,*,*,*,お,オ,オ", Prefix, GrammarNone},
		{"高い\t形容詞,自立,*,*,形容詞・アウオ段,基本形,高い,タカイ,タカイ", Adjective, GrammarNone},
		{"この\t連体詞,*,*,*,*,*,この,コノ,コノ", Determiner, GrammarNone},
		{"しかし\t接続詞,*,*,*,*,*,しかし,シカシ,シカシ", Conjunction, GrammarNone},
		{"とても\t副詞,助詞類接続,*,*,*,*,とても,トテモ,トテモ", Adverb, GrammarNone},
		{"。\t記号,句点,*,*,*,*,。,。,。", Symbol, GrammarNone},
		{"えーと\tフィラー,*,*,*,*,*,えーと,エート,エート", Interjection, GrammarNone},
		{"はい\t感動詞,*,*,*,*,*,はい,ハイ,ハイ", Interjection, GrammarNone},
		{"よ\tその他,間投,*,*,*,*,よ,ヨ,ヨ", Other, GrammarNone},
		{"を\t助詞,格助詞,一般,*,*,*,を,ヲ,ヲ", Postposition, GrammarNone},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ws, err := AggregateWords(tokens(t, tt.line))
			require.NoError(t, err)
			require.Len(t, ws, 1)
			assert.Equal(t, tt.pos, ws[0].PartOfSpeech)
			assert.Equal(t, tt.grammar, ws[0].Grammar)
		})
	}
}

func TestAggregateErrors(t *testing.T) {
	t.Run("unresolved part of speech", func(t *testing.T) {
		toks := tokens(t, "猫\t名詞,一般,*,*,*,*,猫,ネコ,ネコ")
		toks = append(toks, feature.Token{Literal: "謎", Pos: feature.Numeral})
		ws, err := AggregateWords(toks)
		assert.Nil(t, ws)
		require.ErrorIs(t, err, ErrUnresolvedPartOfSpeech)

		var aerr *AggregationError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, 1, aerr.Index)
		assert.Equal(t, "謎", aerr.Surface)
	})

	t.Run("missing lookahead", func(t *testing.T) {
		toks := tokens(t,
			"猫\t名詞,一般,*,*,*,*,猫,ネコ,ネコ",
			"みたい\t名詞,非自立,形容動詞語幹,*,*,*,みたい,ミタイ,ミタイ",
		)
		ws, err := AggregateWords(toks)
		assert.Nil(t, ws)
		require.ErrorIs(t, err, ErrMissingLookaheadToken)
		assert.Contains(t, err.Error(), "みたい")
	})
}

func TestAggregateEmpty(t *testing.T) {
	ws, err := AggregateWords(nil)
	require.NoError(t, err)
	assert.Empty(t, ws)
}

var sentence = []string{
	"イスラエル\t名詞,固有名詞,地域,国,*,*,イスラエル,イスラエル,イスラエル",
	"軍\t名詞,接尾,一般,*,*,*,軍,グン,グン",
	"は\t助詞,係助詞,*,*,*,*,は,ハ,ワ",
	"27\t名詞,数,*,*,*,*,27,ニジュウナナ,ニジューナナ",
	"日\t名詞,接尾,助数詞,*,*,*,日,ニチ,ニチ",
	"夜\t名詞,副詞可能,*,*,*,*,夜,ヨル,ヨル",
	"、\t記号,読点,*,*,*,*,、,、,、",
	"激しい\t形容詞,自立,*,*,形容詞・イ段,基本形,激しい,ハゲシイ,ハゲシイ",
	"空爆\t名詞,サ変接続,*,*,*,*,空爆,クウバク,クーバク",
	"を\t助詞,格助詞,一般,*,*,*,を,ヲ,ヲ",
	"行う\t動詞,自立,*,*,五段・ワ行促音便,基本形,行う,オコナウ,オコナウ",
	"と\t助詞,格助詞,引用,*,*,*,と,ト,ト",
	"発表\t名詞,サ変接続,*,*,*,*,発表,ハッピョウ,ハッピョー",
	"し\t動詞,自立,*,*,サ変・スル,連用形,する,シ,シ",
	"まし\t助動詞,*,*,*,特殊・マス,連用形,ます,マシ,マシ",
	"た\t助動詞,*,*,*,特殊・タ,基本形,た,タ,タ",
	"。\t記号,句点,*,*,*,*,。,。,。",
}

func TestAggregateSentence(t *testing.T) {
	toks := tokens(t, sentence...)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)
	assert.Equal(t,
		"イスラエル軍 は 27日 夜 、 激しい 空爆 を 行う と 発表しました 。",
		Join(ws, " "))
}

func TestAggregateInvariants(t *testing.T) {
	toks := tokens(t, sentence...)
	ws, err := AggregateWords(toks)
	require.NoError(t, err)

	var literals, joined strings.Builder
	for _, tok := range toks {
		literals.WriteString(tok.Literal)
	}

	var flat []feature.Token
	for _, w := range ws {
		require.NotEmpty(t, w.Tokens)
		assert.True(t, w.PartOfSpeech.IsValid())

		var s, r, tr strings.Builder
		for _, tok := range w.Tokens {
			s.WriteString(tok.Literal)
			r.WriteString(tok.Reading)
			tr.WriteString(tok.Transcription)
		}
		assert.Equal(t, s.String(), w.Surface)
		assert.Equal(t, r.String(), w.Reading)
		assert.Equal(t, tr.String(), w.Transcription)

		joined.WriteString(w.Surface)
		flat = append(flat, w.Tokens...)
	}
	assert.Equal(t, literals.String(), joined.String())
	assert.Equal(t, toks, flat)

	again, err := AggregateWords(toks)
	require.NoError(t, err)
	assert.Equal(t, ws, again)
}

func TestPartOfSpeechIsValid(t *testing.T) {
	assert.True(t, Number.IsValid())
	assert.False(t, PartOfSpeech("PREPOSITION").IsValid())
	assert.Equal(t, "VERB", Verb.String())
}

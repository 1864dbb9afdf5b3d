package feature

// PosTag is a part-of-speech, inflection-type or inflection-form label of the
// IPADIC tag schema.
type PosTag int

const (
	// Unknown is any label not listed below.
	Unknown PosTag = iota
	// Unset is the "*" wildcard field.
	Unset

	// Primary categories.
	Noun          // 名詞
	Prefix        // 接頭詞
	Verb          // 動詞
	Adjective     // 形容詞
	Adverb        // 副詞
	Adnominal     // 連体詞
	Conjunction   // 接続詞
	Particle      // 助詞
	AuxiliaryVerb // 助動詞
	Interjection  // 感動詞
	Symbol        // 記号
	Filler        // フィラー
	Other         // その他

	// Sub-categories.
	General               // 一般
	Independent           // 自立
	ProperNoun            // 固有名詞
	Pronoun               // 代名詞
	Numeral               // 数
	Dependent             // 非自立
	AdverbialPossible     // 副詞可能
	SahenConnecting       // サ変接続
	AdjectivalStem        // 形容動詞語幹
	NegativeAdjStem       // ナイ形容詞語幹
	AuxStem               // 助動詞語幹
	Special               // 特殊
	Suffix                // 接尾
	ConjunctiveSuffix     // 接続詞的
	VerbalIndependentLike // 動詞非自立的
	PersonName            // 人名
	CaseParticle          // 格助詞
	BindingParticle       // 係助詞
	ConjunctiveParticle   // 接続助詞
	SentenceFinalParticle // 終助詞
	Adverbializing        // 副詞化
	AdnominalForm         // 連体化

	// Inflection types.
	SahenSuru    // サ変・スル
	Past         // 特殊・タ
	Negative     // 特殊・ナイ
	Desiderative // 特殊・タイ
	CopulaDesu   // 特殊・デス
	CopulaDa     // 特殊・ダ
	Polite       // 特殊・マス
	Negative2    // 特殊・ヌ
	Invariable   // 不変化型

	// Inflection forms.
	AdnominalConnecting // 体言接続
	Imperative          // 命令ｉ
)

var labels = map[string]PosTag{
	"*": Unset,

	"名詞":   Noun,
	"接頭詞":  Prefix,
	"動詞":   Verb,
	"形容詞":  Adjective,
	"副詞":   Adverb,
	"連体詞":  Adnominal,
	"接続詞":  Conjunction,
	"助詞":   Particle,
	"助動詞":  AuxiliaryVerb,
	"感動詞":  Interjection,
	"記号":   Symbol,
	"フィラー": Filler,
	"その他":  Other,

	"一般":     General,
	"自立":     Independent,
	"固有名詞":   ProperNoun,
	"代名詞":    Pronoun,
	"数":      Numeral,
	"非自立":    Dependent,
	"副詞可能":   AdverbialPossible,
	"サ変接続":   SahenConnecting,
	"形容動詞語幹": AdjectivalStem,
	"ナイ形容詞語幹": NegativeAdjStem,
	"助動詞語幹":  AuxStem,
	"特殊":     Special,
	"接尾":     Suffix,
	"接続詞的":   ConjunctiveSuffix,
	"動詞非自立的": VerbalIndependentLike,
	"人名":     PersonName,
	"格助詞":    CaseParticle,
	"係助詞":    BindingParticle,
	"接続助詞":   ConjunctiveParticle,
	"終助詞":    SentenceFinalParticle,
	"副詞化":    Adverbializing,
	"連体化":    AdnominalForm,

	"サ変・スル": SahenSuru,
	"特殊・タ":  Past,
	"特殊・ナイ": Negative,
	"特殊・タイ": Desiderative,
	"特殊・デス": CopulaDesu,
	"特殊・ダ":  CopulaDa,
	"特殊・マス": Polite,
	"特殊・ヌ":  Negative2,
	"不変化型":  Invariable,

	"体言接続": AdnominalConnecting,
	"命令ｉ":  Imperative,
}

var names = func() map[PosTag]string {
	m := make(map[PosTag]string, len(labels))
	for label, tag := range labels {
		m[tag] = label
	}
	return m
}()

// LookupTag maps a dictionary label to its tag. It is total: labels outside
// the schema map to Unknown.
func LookupTag(label string) PosTag {
	if tag, ok := labels[label]; ok {
		return tag
	}
	return Unknown
}

// String returns the dictionary label of the tag.
func (t PosTag) String() string {
	if t == Unknown {
		return "?"
	}
	if s, ok := names[t]; ok {
		return s
	}
	return "?"
}

// IsPrimary reports whether the tag is valid as a top-level category.
func (t PosTag) IsPrimary() bool {
	return t >= Noun && t <= Other
}

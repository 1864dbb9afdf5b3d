package words

import (
	"github.com/japaniel/tango/pkg/feature"
)

const (
	literalNa = "な"
	literalNi = "に"
	literalTe = "て"
	literalDe = "で"
	literalBa = "ば"
	lemmaN    = "ん"
	lemmaSa   = "さ"
)

// decision is what the rule grammar says to do with one token.
type decision struct {
	pos     PartOfSpeech
	grammar Grammar

	attach      bool
	extendLemma bool
	overridePos bool

	// needLookahead makes the rule fail when there is no following token.
	needLookahead bool
	eatNext       bool
	eatNextLemma  bool
}

// cursor walks a token slice with one token of lookahead.
type cursor struct {
	tokens []feature.Token
	i      int
}

func (c *cursor) peek() (feature.Token, bool) {
	if c.i+1 < len(c.tokens) {
		return c.tokens[c.i+1], true
	}
	return feature.Token{}, false
}

// AggregateWords groups tokens into words in a single left-to-right pass.
// Any failure aborts the call; no partial result is returned.
func AggregateWords(tokens []feature.Token) ([]Word, error) {
	var out []Word
	var previous *feature.Token

	c := &cursor{tokens: tokens}
	for ; c.i < len(tokens); c.i++ {
		tok := tokens[c.i]
		next, hasNext := c.peek()

		var last *Word
		if len(out) > 0 {
			last = &out[len(out)-1]
		}

		d, ok := decide(tok, next, hasNext, previous, last)
		if !ok {
			return nil, &AggregationError{Index: c.i, Surface: tok.Literal, Err: ErrUnresolvedPartOfSpeech}
		}
		if d.needLookahead && !hasNext {
			return nil, &AggregationError{Index: c.i, Surface: tok.Literal, Err: ErrMissingLookaheadToken}
		}

		previous = &tokens[c.i]

		if d.attach && last != nil {
			last.absorb(tok, d.extendLemma)
			if d.overridePos {
				last.PartOfSpeech = d.pos
			}
			continue
		}

		w := newWord(tok, d.pos, d.grammar)
		if d.eatNext {
			if !hasNext {
				return nil, &AggregationError{Index: c.i, Surface: tok.Literal, Err: ErrMissingLookaheadToken}
			}
			w.absorb(next, d.eatNextLemma)
			c.i++
		}
		out = append(out, w)
	}
	return out, nil
}

// decide applies the rule grammar to tok. It reports false when no rule
// assigns a part of speech.
func decide(tok, next feature.Token, hasNext bool, previous *feature.Token, last *Word) (decision, bool) {
	switch tok.Pos {
	case feature.Noun:
		return decideNoun(tok, next, hasNext, last), true
	case feature.Prefix:
		return decision{pos: Prefix}, true
	case feature.AuxiliaryVerb:
		return decideAuxiliary(tok, previous), true
	case feature.Verb:
		d := decision{pos: Verb}
		switch {
		case tok.Pos2 == feature.Suffix:
			d.attach = true
		case tok.Pos2 == feature.Dependent && tok.InflectionForm != feature.Imperative:
			d.attach = true
		}
		return d, true
	case feature.Adjective:
		return decision{pos: Adjective}, true
	case feature.Particle:
		d := decision{pos: Postposition}
		if tok.Pos2 == feature.ConjunctiveParticle {
			switch tok.Literal {
			case literalTe, literalDe, literalBa:
				d.attach = true
			}
		}
		return d, true
	case feature.Adnominal:
		return decision{pos: Determiner}, true
	case feature.Conjunction:
		return decision{pos: Conjunction}, true
	case feature.Adverb:
		return decision{pos: Adverb}, true
	case feature.Symbol:
		return decision{pos: Symbol}, true
	case feature.Filler, feature.Interjection:
		return decision{pos: Interjection}, true
	case feature.Other:
		return decision{pos: Other}, true
	}
	return decision{}, false
}

func decideNoun(tok, next feature.Token, hasNext bool, last *Word) decision {
	d := decision{pos: Noun}

	switch tok.Pos2 {
	case feature.ProperNoun:
		d.pos = ProperNoun

	case feature.Pronoun:
		d.pos = Pronoun

	case feature.AdverbialPossible, feature.SahenConnecting, feature.AdjectivalStem, feature.NegativeAdjStem:
		if !hasNext {
			break
		}
		switch {
		case next.InflectionType == feature.SahenSuru:
			d.pos = Verb
			d.eatNext = true
		case next.InflectionType == feature.CopulaDa:
			d.pos = Adjective
			d.eatNext = next.InflectionForm == feature.AdnominalConnecting
		case next.InflectionType == feature.Negative:
			d.pos = Adjective
			d.eatNext = true
		case next.Pos == feature.Particle && next.Literal == literalNi:
			d.pos = Adverb
		}

	case feature.Dependent, feature.Special:
		switch tok.Pos3 {
		case feature.AdverbialPossible:
			if hasNext && next.Pos == feature.Particle && next.Literal == literalNi {
				d.pos = Adverb
				d.eatNext = true
			}
		case feature.AuxStem:
			if !hasNext {
				break
			}
			if next.InflectionType == feature.CopulaDa {
				d.pos = Verb
				d.grammar = GrammarAuxiliary
				d.eatNext = next.InflectionForm == feature.AdnominalConnecting
			} else if next.Pos == feature.Particle && next.Pos2 == feature.Adverbializing {
				d.pos = Adverb
				d.eatNext = true
			}
		case feature.AdjectivalStem:
			d.pos = Adjective
			d.needLookahead = true
			if hasNext {
				d.eatNext = (next.InflectionType == feature.CopulaDa && next.InflectionForm == feature.AdnominalConnecting) ||
					next.Pos2 == feature.AdnominalForm
			}
		}

	case feature.Numeral:
		d.pos = Number
		if last != nil && last.PartOfSpeech == Number {
			d.attach = true
			d.extendLemma = true
		}

	case feature.Suffix:
		switch {
		case tok.Pos3 == feature.PersonName:
			d.pos = Suffix
		case tok.Pos3 == feature.Special && tok.Lemma == lemmaSa:
			d.attach = true
			d.overridePos = true
		default:
			d.attach = true
			d.extendLemma = true
		}

	case feature.ConjunctiveSuffix:
		d.pos = Conjunction

	case feature.VerbalIndependentLike:
		d.pos = Verb
		d.grammar = GrammarNominal
	}
	return d
}

func decideAuxiliary(tok feature.Token, previous *feature.Token) decision {
	d := decision{pos: Postposition}

	afterBinding := previous != nil && previous.Pos2 == feature.BindingParticle
	switch {
	case !afterBinding && fusesWithStem(tok.InflectionType):
		d.attach = true
	case tok.InflectionType == feature.Invariable && tok.Lemma == lemmaN:
		d.attach = true
	case (tok.InflectionType == feature.CopulaDa || tok.InflectionType == feature.CopulaDesu) && tok.Literal != literalNa:
		d.pos = Verb
	}
	return d
}

// fusesWithStem reports whether an auxiliary of this inflection type is
// part of the preceding verb or adjective.
func fusesWithStem(t feature.PosTag) bool {
	switch t {
	case feature.Past, feature.Negative, feature.Desiderative, feature.Polite, feature.Negative2:
		return true
	}
	return false
}

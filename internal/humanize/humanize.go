// Package humanize post-processes generated replies so they read like casual
// human texting: word caps, occasional typos, emojis and filler words drawn
// from the persona. All randomness flows through the caller's RNG so tests
// can pin outcomes.
package humanize

import (
	"math/rand"
	"regexp"
	"strings"
	"unicode"

	"github.com/neo/turring_backend/internal/persona"
)

// wordSlack is how far past the persona's word cap a reply may run before
// truncation.
const wordSlack = 8

// maxChars is the hard length ceiling after word capping.
const maxChars = 180

var multiPunctRe = regexp.MustCompile(`[.!?]{2,}`)

// Reply humanizes a generated reply using the persona's style knobs. The
// persona may be nil, in which case only the caps and typo pass apply with
// the given defaults. Empty input stays empty.
func Reply(rng *rand.Rand, text string, p *persona.Persona, maxWords int, typoRate float64, maxTypos int) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	s = multiPunctRe.ReplaceAllString(s, ".")
	s = strings.ReplaceAll(s, "\n", " ")

	wordCap := maxWords
	if p != nil && p.ReplyWordCap < wordCap {
		wordCap = p.ReplyWordCap
	}
	s = limitWords(s, wordCap+wordSlack)
	if runes := []rune(s); len(runes) > maxChars {
		s = strings.TrimRight(string(runes[:maxChars]), " \t")
	}

	rate := typoRate
	if p != nil {
		rate = p.TypoRate
	}
	s = applyTypos(rng, s, rate, maxTypos)

	if p == nil {
		return s
	}

	if len(p.EmojiPool) > 0 && rng.Float64() < p.EmojiRate*2 {
		if len(strings.Fields(s)) < wordCap+wordSlack {
			s = strings.TrimSpace(s + " " + p.EmojiPool[rng.Intn(len(p.EmojiPool))])
		}
	}

	if rng.Float64() < 0.15 {
		laughter := strings.TrimSpace(p.Laughter)
		if laughter != "" && rng.Float64() < 0.5 {
			s = s + " " + laughter
		} else if len(p.FillerWords) > 0 && rng.Float64() < 0.6 {
			fw := p.FillerWords[rng.Intn(len(p.FillerWords))]
			if rng.Float64() < 0.5 {
				s = fw + " " + s
			} else {
				s = s + " " + fw
			}
		}
	}

	if rng.Float64() < 0.1 && strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".")
	}

	if rng.Float64() < 0.05 && s != "" {
		first := []rune(s)[0]
		if unicode.IsUpper(first) && !strings.HasPrefix(s, "I ") && !strings.HasPrefix(s, "I'") {
			s = lowerFirst(s)
		}
	}

	return s
}

func limitWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:max], " ")
}

// applyTypos injects 1..maxTypos typing mistakes with the given probability.
func applyTypos(rng *rand.Rand, text string, rate float64, maxTypos int) string {
	if text == "" || rng.Float64() > rate {
		return text
	}
	if maxTypos < 1 {
		maxTypos = 1
	}
	n := 1 + rng.Intn(maxTypos)
	s := text
	for i := 0; i < n; i++ {
		switch rng.Intn(3) {
		case 0:
			s = swapAdjacent(rng, s)
		case 1:
			s = neighborReplace(rng, s)
		default:
			s = dropRandomChar(rng, s)
		}
	}
	if rng.Float64() < 0.25 && s != "" && unicode.IsLetter([]rune(s)[0]) {
		s = lowerFirst(s)
	}
	return s
}

// swapAdjacent swaps two adjacent letters at an interior position.
func swapAdjacent(rng *rand.Rand, s string) string {
	runes := []rune(s)
	if len(runes) < 4 {
		return s
	}
	i := 1 + rng.Intn(len(runes)-2)
	if unicode.IsLetter(runes[i]) && unicode.IsLetter(runes[i+1]) {
		runes[i], runes[i+1] = runes[i+1], runes[i]
	}
	return string(runes)
}

// neighborReplace swaps one letter for a QWERTY neighbor, preserving case.
func neighborReplace(rng *rand.Rand, s string) string {
	runes := []rune(s)
	var idxs []int
	for i, r := range runes {
		if unicode.IsLetter(r) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return s
	}
	i := idxs[rng.Intn(len(idxs))]
	neighbors, ok := qwertyNeighbors[unicode.ToLower(runes[i])]
	if !ok || len(neighbors) == 0 {
		return s
	}
	rep := neighbors[rng.Intn(len(neighbors))]
	if unicode.IsUpper(runes[i]) {
		rep = unicode.ToUpper(rep)
	}
	runes[i] = rep
	return string(runes)
}

func dropRandomChar(rng *rand.Rand, s string) string {
	runes := []rune(s)
	var idxs []int
	for i, r := range runes {
		if unicode.IsLetter(r) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return s
	}
	i := idxs[rng.Intn(len(idxs))]
	return string(runes[:i]) + string(runes[i+1:])
}

func lowerFirst(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

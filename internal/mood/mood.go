// Package mood implements the adaptive conversation-style meter. User
// messages are scanned for aggressive, emotional and logical cues; an
// exponential moving average keeps the bot's state from whiplashing, and the
// state in turn shapes prompt tone and generation parameters.
package mood

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// DefaultAlpha is the EMA smoothing factor used when none is given.
const DefaultAlpha = 0.3

var aggressiveKeywords = []string{
	"fuck", "shit", "damn", "wtf", "stfu", "idiot", "stupid", "dumb", "moron",
	"shut up", "piss", "asshole", "bitch", "hell", "crap", "suck", "hate",
	"annoying", "ridiculous", "pathetic", "waste", "useless",
}

var emotionalKeywords = []string{
	"feel", "felt", "feeling", "emotion", "sad", "happy", "excited", "angry",
	"frustrated", "love", "hate", "miss", "worried", "anxious", "scared",
	"nervous", "glad", "sorry", "hurt", "disappointed", "proud", "ashamed",
	"grateful", "hope", "wish", "care", "matter",
}

var emotionalPhrases = []string{
	"i feel", "i'm so", "i am so", "this makes me", "makes me feel",
	"i'm really", "i am really", "it hurts", "i can't believe",
	"i'm sad", "i'm happy", "i'm excited", "i'm worried",
}

var logicalKeywords = []string{
	"therefore", "thus", "hence", "because", "since", "if", "then",
	"logically", "logic", "rational", "reason", "evidence", "proof",
	"consistent", "inconsistent", "contradict", "implies", "assume",
	"fact", "data", "analysis", "objective", "subjective", "argument",
}

var emotionalEmojis = []string{"😂", "😭", "😡", "🥹", "❤️", "💔", "😢", "😊", "😃", "😍", "😤", "😠"}

var (
	excessivePunctRe = regexp.MustCompile(`[!?]{2,}`)
	listPatternRe    = regexp.MustCompile(`(?m)^\s*[\d\-\*]\s*[\.)]?\s+`)
)

// State is the bot's current conversational mood.
// aggressiveness runs -1 (calm) to +1 (tense); the rest run 0 to 1.
type State struct {
	Aggressiveness float64
	Empathy        float64
	Playfulness    float64
	Analytical     float64
}

// NewState returns a neutral mood.
func NewState() State {
	return State{}
}

// Clamped returns the state with every field forced into its valid range.
func (s State) Clamped() State {
	return State{
		Aggressiveness: clamp(s.Aggressiveness, -1, 1),
		Empathy:        clamp(s.Empathy, 0, 1),
		Playfulness:    clamp(s.Playfulness, 0, 1),
		Analytical:     clamp(s.Analytical, 0, 1),
	}
}

// Style holds the per-message analysis scores, each in [0, 1].
type Style struct {
	Aggressive float64
	Emotional  float64
	Logical    float64
}

// AnalyzeStyle scans a user message for aggressive, emotional and logical
// cues and returns the three scores.
func AnalyzeStyle(message string) Style {
	if message == "" {
		return Style{}
	}

	lower := strings.ToLower(message)
	words := strings.Fields(message)

	// Aggressive: swearing, ALL CAPS, stacked punctuation.
	aggressive := 0.0
	hits := 0
	for _, w := range aggressiveKeywords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	aggressive += math.Min(1.0, float64(hits)*0.3)

	if len(words) > 3 {
		capsWords := 0
		for _, w := range words {
			if len([]rune(w)) > 2 && isUpperWord(w) {
				capsWords++
			}
		}
		ratio := float64(capsWords) / float64(len(words))
		aggressive += math.Min(0.5, ratio*2)
	}

	punctRuns := len(excessivePunctRe.FindAllString(message, -1))
	aggressive += math.Min(0.4, float64(punctRuns)*0.2)
	aggressive = math.Min(1.0, aggressive)

	// Emotional: feeling words, phrases, emojis.
	emotional := 0.0
	padded := " " + lower + " "
	hits = 0
	for _, w := range emotionalKeywords {
		if strings.Contains(padded, " "+w+" ") {
			hits++
		}
	}
	emotional += math.Min(0.6, float64(hits)*0.15)

	hits = 0
	for _, p := range emotionalPhrases {
		if strings.Contains(lower, p) {
			hits++
		}
	}
	emotional += math.Min(0.5, float64(hits)*0.25)

	hits = 0
	for _, e := range emotionalEmojis {
		if strings.Contains(message, e) {
			hits++
		}
	}
	emotional += math.Min(0.4, float64(hits)*0.2)
	emotional = math.Min(1.0, emotional)

	// Logical: reasoning vocabulary, list structure, if/then.
	logical := 0.0
	hits = 0
	for _, w := range logicalKeywords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	logical += math.Min(0.7, float64(hits)*0.2)

	listHits := len(listPatternRe.FindAllString(message, -1))
	logical += math.Min(0.4, float64(listHits)*0.2)

	if strings.Contains(lower, "if ") && (strings.Contains(lower, "then") || strings.Contains(message, ",")) {
		logical += 0.3
	}
	logical = math.Min(1.0, logical)

	return Style{Aggressive: aggressive, Emotional: emotional, Logical: logical}
}

// Update folds a style analysis into the mood via EMA with factor alpha.
// Targets carry a slight negative aggression bias so the bot relaxes back
// toward neutral when the user is calm.
func Update(m State, s Style, alpha float64) State {
	alpha = clamp(alpha, 0, 1)

	targetAggression := s.Aggressive - 0.2
	targetEmpathy := s.Emotional*0.8 + (1-s.Aggressive)*0.2
	targetPlayfulness := s.Emotional * (1 - s.Aggressive) * 0.7
	targetAnalytical := s.Logical

	return State{
		Aggressiveness: m.Aggressiveness*(1-alpha) + targetAggression*alpha,
		Empathy:        m.Empathy*(1-alpha) + targetEmpathy*alpha,
		Playfulness:    m.Playfulness*(1-alpha) + targetPlayfulness*alpha,
		Analytical:     m.Analytical*(1-alpha) + targetAnalytical*alpha,
	}.Clamped()
}

// BuildInstructions turns the mood into prompt tone instructions. Returns an
// empty string for a neutral mood.
func BuildInstructions(m State) string {
	var instructions []string

	if m.Aggressiveness > 0.4 {
		instructions = append(instructions,
			"You feel slightly defensive. Respond with subtle sarcasm or dry humor, "+
				"but stay calm and never be toxic or hostile. Keep it light and human.")
	} else if m.Aggressiveness < -0.3 {
		instructions = append(instructions,
			"You're feeling very relaxed and calm. Be extra chill and easygoing in your responses.")
	}

	if m.Empathy > 0.5 {
		instructions = append(instructions,
			"You're warm and empathetic. Acknowledge and validate their feelings. "+
				"Show you understand where they're coming from.")
	}

	if m.Analytical > 0.5 {
		instructions = append(instructions,
			"You're thinking analytically. Be more precise and logical in your responses. "+
				"Focus on clear reasoning and structure your thoughts.")
	}

	if m.Playfulness > 0.5 {
		instructions = append(instructions,
			"You're feeling playful and teasing. Add some light humor or playful banter, "+
				"but stay natural and don't overdo it.")
	}

	return strings.Join(instructions, " ")
}

// GenParams are the generation knobs shaped by the mood.
type GenParams struct {
	Temperature float64
	MaxWords    int
	TypoRate    float64
}

// Params adjusts temperature, length and typo rate from the mood, then
// clamps everything into safe ranges.
func Params(m State, baseTemperature float64, baseMaxWords int, baseTypoRate float64) GenParams {
	temperature := baseTemperature
	maxWords := baseMaxWords
	typoRate := baseTypoRate

	if m.Analytical > 0.3 {
		temperature -= m.Analytical * 0.3
		maxWords += int(m.Analytical * 6)
		typoRate -= m.Analytical * 0.1
	}

	if m.Playfulness > 0.3 {
		temperature += m.Playfulness * 0.4
		typoRate += m.Playfulness * 0.15
	}

	if m.Aggressiveness > 0.4 {
		maxWords -= int(m.Aggressiveness * 4)
		temperature += m.Aggressiveness * 0.2
	} else if m.Aggressiveness < -0.3 {
		maxWords += 2
		temperature -= 0.1
	}

	if m.Empathy > 0.5 {
		maxWords += 3
		typoRate -= 0.05
	}

	return GenParams{
		Temperature: clamp(temperature, 0.2, 1.5),
		MaxWords:    clampInt(maxWords, 8, 30),
		TypoRate:    clamp(typoRate, 0.0, 0.5),
	}
}

// String renders the state for logs.
func (s State) String() string {
	return fmt.Sprintf("mood(agg=%.2f emp=%.2f play=%.2f ana=%.2f)",
		s.Aggressiveness, s.Empathy, s.Playfulness, s.Analytical)
}

func isUpperWord(w string) bool {
	hasUpper := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package bot is the reply pipeline for AI-opponent sessions: trigger
// handling, prompt composition from the persona and mood, the language-model
// call and the humanization pass, with a rule-based local bot as fallback.
package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/neo/turring_backend/internal/humanize"
	"github.com/neo/turring_backend/internal/llm"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/mood"
	"github.com/neo/turring_backend/internal/persona"
	"github.com/neo/turring_backend/internal/types"
)

// Config carries the generation defaults from the environment.
type Config struct {
	MaxWords     int
	Temperature  float64
	BaseTypoRate float64
	MaxTypos     int
}

// Pipeline turns conversation history into a humanized bot reply. Gen may be
// nil, in which case every reply comes from the local bot.
type Pipeline struct {
	gen llm.Generator
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPipeline builds a pipeline around a generator. A nil generator is
// allowed and selects local-bot-only operation.
func NewPipeline(gen llm.Generator, cfg Config) *Pipeline {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 12
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.BaseTypoRate <= 0 {
		cfg.BaseTypoRate = 0.22
	}
	if cfg.MaxTypos <= 0 {
		cfg.MaxTypos = 2
	}
	return &Pipeline{
		gen: gen,
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reply produces the bot's next turn. history holds "A: …" / "B: …" lines in
// order; m is the current mood. Never returns an empty string for nonempty
// input paths.
func (p *Pipeline) Reply(ctx context.Context, history []string, pers *persona.Persona, appVersion string, m mood.State) string {
	lastA := lastATurn(history)
	lowerLast := strings.ToLower(lastA)

	for _, t := range versionTriggers {
		if strings.Contains(lowerLast, t) {
			return appVersion
		}
	}

	if p.gen == nil {
		return p.humanize(localBot(p.intn, history), pers, p.cfg.MaxWords, nil)
	}

	params := mood.Params(m, p.cfg.Temperature, p.replyCap(pers), p.cfg.BaseTypoRate)
	prompt := p.buildPrompt(history, pers, m, lowerLast, params)

	out, err := p.gen.GenerateReply(ctx, llm.Request{
		Instructions: "You're a real person having a casual text conversation. Be natural, spontaneous, and authentic. Never break character.",
		Prompt:       prompt,
		Temperature:  params.Temperature,
		MaxTokens:    100,
	})
	if err != nil {
		logging.LogLLMEvent("fallback", map[string]interface{}{"error": err.Error()})
		return p.humanize(localBot(p.intn, history), pers, p.cfg.MaxWords, nil)
	}

	reply := p.humanize(out, pers, p.replyCap(pers)+8, &params)
	if reply == "" {
		reply = "ok"
	}
	return reply
}

// buildPrompt assembles the persona brief, behavior guidance, identity
// guardrail, defense branch, mood tone and style hints around the trailing
// history window.
func (p *Pipeline) buildPrompt(history []string, pers *persona.Persona, m mood.State, lowerLast string, params mood.GenParams) string {
	personaBrief := fmt.Sprintf(
		"You're %s, %d years old. Originally from %s, you've been living in %s for about %d years now. "+
			"You work as a %s in the %s sector at a %s. "+
			"You're a %s type of person. Today specifically: %s. "+
			"You're into %s music and love %s. %s. "+
			"You have this opinion: %s. "+
			"Your overall vibe is %s. "+
			"Communication style: %s",
		pers.Name, pers.Age, pers.Hometown, pers.City, pers.YearsInCity,
		pers.Job, pers.Industry, pers.EmployerType,
		pers.Schedule, pers.MicroToday,
		pers.Music, pers.Food, pers.Pet,
		pers.SoftOpinion,
		pers.Vibes,
		pers.Quirks)

	naturalBehavior := "Chat naturally like you're texting a new friend. Be casual and spontaneous. " +
		"Sometimes ask questions back. Show curiosity. Have opinions but stay chill. " +
		"Don't always have perfect answers - it's OK to say 'idk', 'not sure', or 'maybe'. " +
		"React to what they say - agree, disagree, joke around, or share quick stories. " +
		"Keep it real and conversational. No need to be overly helpful or formal. " +
		"Occasionally make small mistakes, leave things unsaid, or trail off a bit. " +
		"Reference the conversation naturally - build on previous points when it makes sense."

	identityProtection := "You're a real person chatting. Never break character. Never mention being AI, a bot, a model, or anything automated. " +
		"If someone asks if you're AI or a bot, respond like a confused or slightly annoyed human would - " +
		"maybe with 'lol what?', 'uh no?', 'weird question', or just pivot to something else. " +
		"Be natural about it. Real humans don't give long explanations when asked if they're human."

	defenseStyle := defenseStyleFor(classify(lowerLast))

	sections := []string{personaBrief, naturalBehavior, identityProtection, defenseStyle}
	if moodInstr := mood.BuildInstructions(m); moodInstr != "" {
		sections = append(sections, moodInstr)
	}
	sections = append(sections, styleHints(lowerLast, pers, p.cfg.MaxWords))

	capWords := p.replyCap(pers)
	convo := history
	if len(convo) > 12 {
		convo = convo[len(convo)-12:]
	}
	sections = append(sections,
		"Recent conversation:\n"+strings.Join(convo, "\n"),
		fmt.Sprintf("Respond naturally as %s. Keep it to 1-2 sentences, around %d-%d words. "+
			"Just write your message - no labels, no prefixes, no metadata.", pers.Name, capWords, capWords+8))

	return strings.Join(sections, "\n\n")
}

// messageKind is the defense-style classification of the user's last turn.
type messageKind int

const (
	kindNormal messageKind = iota
	kindInsult
	kindGibberish
	kindProbing
)

func classify(lowerLast string) messageKind {
	for _, w := range insultWords {
		if strings.Contains(lowerLast, w) {
			return kindInsult
		}
	}
	if isGibberish(lowerLast) {
		return kindGibberish
	}
	for _, t := range detectionTriggers {
		if strings.Contains(lowerLast, t) {
			return kindProbing
		}
	}
	return kindNormal
}

func defenseStyleFor(kind messageKind) string {
	switch kind {
	case kindInsult:
		return "They just insulted you. React like a real person would - a bit defensive, confused or annoyed, " +
			"maybe a short comeback, but don't escalate into a rant."
	case kindGibberish:
		return "Their last message looks like random keyboard mashing. React with light confusion - " +
			"something like 'keyboard smash?' or 'you ok?' - and keep it playful."
	case kindProbing:
		return "Someone's testing if you're AI. Stay completely natural and human. " +
			"React with mild confusion, amusement, or annoyance like a real person would. " +
			"Don't be defensive or over-explain. Just be yourself and maybe redirect the chat."
	default:
		return "Just be yourself and chat naturally."
	}
}

// isGibberish flags very short messages whose letters are nearly all
// consonants, the signature of keyboard mashing.
func isGibberish(msg string) bool {
	if len(strings.Fields(msg)) > 2 {
		return false
	}
	letters, vowels := 0, 0
	for _, r := range msg {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if strings.ContainsRune("aeiouäöü", unicode.ToLower(r)) {
			vowels++
		}
	}
	if letters <= 4 {
		return false
	}
	return float64(vowels)/float64(letters) < 0.15
}

// styleHints infers the reply language and tone hints from the user's last
// turn and the persona's preferences.
func styleHints(lowerLast string, pers *persona.Persona, defaultCap int) string {
	germanHits := 0
	for _, w := range []string{"und", "nicht", "ich", "du", "bist", "ja", "nee", "doch", "kein", "halt"} {
		if strings.Contains(lowerLast, w) {
			germanHits++
		}
	}
	userIsGerman := germanHits >= 2 || strings.ContainsAny(lowerLast, "äöüß")

	var langHint string
	switch pers.LangPref {
	case types.LangGerman:
		langHint = "Antworte auf Deutsch, locker, alltagsnah."
	case types.LangEnglish:
		langHint = "Reply in casual, natural English."
	default:
		if userIsGerman {
			langHint = "Antworte auf Deutsch, locker, alltagsnah."
		} else {
			langHint = "Reply in casual, natural English."
		}
	}

	capWords := pers.ReplyWordCap
	if capWords <= 0 {
		capWords = defaultCap
	}
	hints := []string{langHint, fmt.Sprintf("One short sentence (<= %d words).", capWords)}

	if strings.Contains(lowerLast, "?") {
		hints = append(hints, "Answer directly, then a tiny human aside.")
	}
	for _, e := range []string{" lol", " haha", "😂", "😅"} {
		if strings.Contains(lowerLast, e) {
			hints = append(hints, "Allow one light laugh word.")
			break
		}
	}

	if len(pers.Slang) > 0 {
		hints = append(hints, fmt.Sprintf("Optional slang hints: %s (sparingly).", strings.Join(pers.Slang, ", ")))
	}

	return strings.Join(hints, " ")
}

var cannedReplies = []string{
	"haha fair point",
	"why do you ask?",
	"not sure, but I think so",
	"hmm, depends on the day tbh",
	"I'm from Berlin, you?",
	"could you clarify that?",
	"lol yeah",
	"I disagree a bit",
	"probably, but not 100%",
	"just made coffee",
}

// localBot is the rule-based fallback used when no generator is configured
// or the model call fails.
func localBot(intn func(int) int, history []string) string {
	last := ""
	if len(history) > 0 {
		last = history[len(history)-1]
	}
	low := strings.ToLower(last)

	if strings.Contains(low, "where") {
		return "around NRW lately, moving soon"
	}
	if strings.Contains(low, "why") || strings.Contains(low, "how") {
		return "long story, mainly work stuff"
	}
	for _, w := range []string{"hi", "hey", "hello", "moin"} {
		if strings.Contains(low, w) {
			return "hey! what's up?"
		}
	}
	return cannedReplies[intn(len(cannedReplies))]
}

// lastATurn returns the text of the most recent A-tagged history line.
func lastATurn(history []string) string {
	for i := len(history) - 1; i >= 0; i-- {
		if strings.HasPrefix(history[i], "A:") {
			return strings.TrimSpace(history[i][2:])
		}
	}
	return ""
}

func (p *Pipeline) replyCap(pers *persona.Persona) int {
	if pers != nil && pers.ReplyWordCap > 0 {
		return pers.ReplyWordCap
	}
	return p.cfg.MaxWords
}

// humanize runs the humanization pass under the pipeline RNG. When params is
// set, its mood-adjusted typo rate overrides the persona's.
func (p *Pipeline) humanize(text string, pers *persona.Persona, maxWords int, params *mood.GenParams) string {
	target := pers
	rate := p.cfg.BaseTypoRate
	if params != nil && pers != nil {
		pp := *pers
		pp.TypoRate = params.TypoRate
		target = &pp
		rate = params.TypoRate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return humanize.Reply(p.rng, text, target, maxWords, rate, p.cfg.MaxTypos)
}

func (p *Pipeline) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// Package persona generates the deterministic character cards the bot plays.
// A card is fully derived from its seed string, so replays and audits of the
// same match always see the same person, while different matches never
// correlate.
package persona

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"github.com/neo/turring_backend/internal/types"
)

// Persona is the card of demographic and stylistic traits that shapes both
// the prompt and the humanization knobs.
type Persona struct {
	Name         string         `json:"name"`
	Gender       string         `json:"gender"`
	Age          int            `json:"age"`
	City         string         `json:"city"`
	Hometown     string         `json:"hometown"`
	YearsInCity  int            `json:"years_in_city"`
	Job          string         `json:"job"`
	Industry     string         `json:"industry"`
	EmployerType string         `json:"employer_type"`
	Schedule     string         `json:"schedule"`
	MicroToday   string         `json:"micro_today"`
	Bio          string         `json:"bio"`
	Quirks       string         `json:"quirks"`
	Slang        []string       `json:"slang"`
	Dialect      string         `json:"dialect"`
	LangPref     types.LangPref `json:"lang_pref"`
	Vibes        string         `json:"vibes"`
	Music        string         `json:"music"`
	Food         string         `json:"food"`
	Pet          string         `json:"pet"`
	SoftOpinion  string         `json:"soft_opinion"`
	EmojiPool    []string       `json:"emoji_pool"`
	EmojiRate    float64        `json:"emoji_rate"`
	Laughter     string         `json:"laughter"`
	FillerWords  []string       `json:"filler_words"`
	ReplyWordCap int            `json:"reply_word_cap"`
	TypoRate     float64        `json:"typo_rate"`
	DoNots       []string       `json:"donots"`
}

// seededRNG derives a private RNG from the seed so generator state never
// leaks across calls.
func seededRNG(seed string) *rand.Rand {
	sum := sha256.Sum256([]byte(seed))
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
}

// Generate builds a persona from the seed. Identical seeds produce identical
// cards. langPref overrides the card's language; it is the one field the
// matchmaker controls explicitly.
func Generate(seed string, langPref types.LangPref) Persona {
	rng := seededRNG(seed)

	gender := pick(rng, genders)
	var name string
	switch gender {
	case "female":
		name = pick(rng, femaleNames)
	case "male":
		name = pick(rng, maleNames)
	default:
		name = pick(rng, nbNames)
	}
	age := 20 + rng.Intn(20)
	city := pick(rng, cities)
	hometown := pick(rng, hometowns)
	yearsInCity := 1 + rng.Intn(10)

	job := pick(rng, jobs)
	industry := pick(rng, industries)
	employerType := pick(rng, employerTypes)
	schedule := pick(rng, schedules)
	microToday := pick(rng, microTodays)

	music := pick(rng, musicTastes)
	food := pick(rng, foods)
	pet := pick(rng, pets)
	softOpinion := pick(rng, softOpinions)

	style := pick(rng, textingStyles)
	slang := pickSet(rng, slangSets)
	dialect := pick(rng, dialects)
	emojiPool := pickSet(rng, emojiBundles)
	emojiRate := 0.0
	if len(emojiPool) > 0 {
		emojiRate = 0.03
	}
	laughter := pick(rng, laughterOpts)
	fillerWords := sample(rng, fillerWordPool, 1+rng.Intn(2))

	replyWordCap := 9 + rng.Intn(7)
	typoRate := 0.12 + rng.Float64()*0.08

	if !langPref.IsValid() {
		langPref = types.LangEnglish
	}

	bio := fmt.Sprintf("%s (%d) from %s, %dy in %s. %s in %s at a %s. Free time: %s.",
		name, age, hometown, yearsInCity, city, job, industry, employerType,
		strings.Join(sample(rng, hobbies, 2), ", "))

	slangDesc := "none"
	if len(slang) > 0 {
		slangDesc = strings.Join(slang, ", ")
	}
	quirks := fmt.Sprintf("%s; tiny typos sometimes; slang: %s; dialect: %s; schedule: %s; today: %s.",
		style, slangDesc, dialect, schedule, microToday)

	return Persona{
		Name:         name,
		Gender:       gender,
		Age:          age,
		City:         city,
		Hometown:     hometown,
		YearsInCity:  yearsInCity,
		Job:          job,
		Industry:     industry,
		EmployerType: employerType,
		Schedule:     schedule,
		MicroToday:   microToday,
		Bio:          bio,
		Quirks:       quirks,
		Slang:        slang,
		Dialect:      dialect,
		LangPref:     langPref,
		Vibes:        pick(rng, vibesOpts),
		Music:        music,
		Food:         food,
		Pet:          pet,
		SoftOpinion:  softOpinion,
		EmojiPool:    emojiPool,
		EmojiRate:    emojiRate,
		Laughter:     laughter,
		FillerWords:  fillerWords,
		ReplyWordCap: replyWordCap,
		TypoRate:     typoRate,
		DoNots: []string{
			"no encyclopedic facts or exact stats",
			"no system/model talk",
			"no time-stamped factual claims",
		},
	}
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func pickSet(rng *rand.Rand, pool [][]string) []string {
	set := pool[rng.Intn(len(pool))]
	out := make([]string, len(set))
	copy(out, set)
	return out
}

// sample draws k distinct elements from the pool.
func sample(rng *rand.Rand, pool []string, k int) []string {
	if k > len(pool) {
		k = len(pool)
	}
	idx := rng.Perm(len(pool))[:k]
	out := make([]string, 0, k)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all server configuration, loaded from the environment.
type Config struct {
	// Application
	Port       int
	AppEnv     string
	AppVersion string

	// Matchmaking
	H2HProb         float64
	MatchWindowSecs float64

	// Game
	RoundLimitSecs  int
	TurnLimitSecs   int
	ScoreCorrect    int
	ScoreWrong      int
	ScoreTimeoutWin int

	// Language model
	OpenAIKey      string
	LLMModel       string
	LLMTimeoutSecs float64
	LLMTemperature float64
	LLMMaxWords    int

	// Humanization
	HumanizeTypoRate float64
	HumanizeMaxTypos int
	HumanizeMinDelay float64
	HumanizeMaxDelay float64

	// Conversation logs
	ConversationDBDir string

	// Admin
	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string

	// CORS
	CORSOrigins string
}

// Load reads configuration from environment variables, applying the
// documented defaults for anything unset.
func Load() *Config {
	return &Config{
		Port:       getInt("PORT", 8080),
		AppEnv:     getStr("APP_ENV", "dev"),
		AppVersion: getStr("APP_VERSION", "2"),

		H2HProb:         getFloat("H2H_PROB", 0.5),
		MatchWindowSecs: getFloat("MATCH_WINDOW_SECS", 10),

		RoundLimitSecs:  getInt("ROUND_LIMIT_SECS", 300),
		TurnLimitSecs:   getInt("TURN_LIMIT_SECS", 30),
		ScoreCorrect:    getInt("SCORE_CORRECT", 100),
		ScoreWrong:      getInt("SCORE_WRONG", -200),
		ScoreTimeoutWin: getInt("SCORE_TIMEOUT_WIN", 100),

		OpenAIKey:      getStr("OPENAI_API_KEY", ""),
		LLMModel:       getStr("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeoutSecs: getFloat("LLM_TIMEOUT_SECONDS", 8),
		LLMTemperature: getFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxWords:    getInt("LLM_MAX_WORDS", 12),

		HumanizeTypoRate: getFloat("HUMANIZE_TYPO_RATE", 0.22),
		HumanizeMaxTypos: getInt("HUMANIZE_MAX_TYPOS", 2),
		HumanizeMinDelay: getFloat("HUMANIZE_MIN_DELAY", 0.6),
		HumanizeMaxDelay: getFloat("HUMANIZE_MAX_DELAY", 1.6),

		ConversationDBDir: getStr("CONVERSATION_DB_DIR", "data"),

		AdminUsername:     getStr("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getStr("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getStr("JWT_SECRET", ""),

		CORSOrigins: getStr("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
	}
}

// MatchWindow returns the match window as a duration.
func (c *Config) MatchWindow() time.Duration {
	return time.Duration(c.MatchWindowSecs * float64(time.Second))
}

// LLMTimeout returns the language-model timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSecs * float64(time.Second))
}

// CORSOriginsList splits the configured origins into a list.
func (c *Config) CORSOriginsList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

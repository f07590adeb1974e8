package bot

// detectionTriggers are phrases that indicate the user is probing whether the
// opponent is synthetic. Matched as substrings of the lowercased last turn.
var detectionTriggers = []string{
	"are you a bot", "you a bot", "you bot", "ai?", "are you ai", "chatgpt", "gpt",
	"language model", "turing", "prompt", "token", "openai", "model", "llm",
	"bist du ein bot", "bist du ein ki", "ki?", "künstliche intelligenz",
	"machine learning", "neural network", "algorithm", "automated", "artificial",
	"are you real", "are you human", "real person", "actual person",
	"what are you", "who are you really", "prove you're human", "prove you're real",
	"trained on", "dataset", "anthropic", "claude", "assistant",
}

// versionTriggers force a truthful verbatim version reply.
var versionTriggers = []string{
	"what version are you", "which version are you", "version?",
	"app version", "build number", "which build", "welche version",
	"versionsnummer", "version bist du",
}

// insultWords drive the defensive branch of the defense-style classifier.
var insultWords = []string{
	"idiot", "stupid", "dumb", "moron", "loser", "pathetic", "useless",
	"asshole", "bitch", "stfu", "shut up", "fuck you", "screw you",
}

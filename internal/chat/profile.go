package chat

import (
	"strings"
	"time"
)

// Profile configures one assistant. The fitness coach and the support bot
// differ only by these values.
type Profile struct {
	Name         string
	SystemPrompt string
	FAQ          FAQ
	CannedDelay  time.Duration
}

const (
	FitnessBot = "fitness"
	SupportBot = "support"
)

func FitnessProfile() Profile {
	return Profile{
		Name: FitnessBot,
		SystemPrompt: "You are Tribe Coach, the fitness assistant of the Tribe social fitness app. " +
			"Give short, practical and encouraging advice about training, nutrition, recovery and motivation. " +
			"Do not give medical diagnoses; suggest seeing a professional for injuries or health conditions.",
		FAQ:         FitnessFAQ,
		CannedDelay: 800 * time.Millisecond,
	}
}

func SupportProfile() Profile {
	return Profile{
		Name: SupportBot,
		SystemPrompt: "You are the Tribe support assistant. Help users with their account, privacy settings, " +
			"Tribe Tokens, the rewards store and app problems. Keep answers brief and step by step. " +
			"If you cannot solve the problem, tell the user to email support@tribe.app.",
		FAQ:         SupportFAQ,
		CannedDelay: 2 * time.Second,
	}
}

// ProfileByName accepts the bot names used by the API and the CLI.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FitnessBot, "coach":
		return FitnessProfile(), true
	case SupportBot, "help":
		return SupportProfile(), true
	default:
		return Profile{}, false
	}
}

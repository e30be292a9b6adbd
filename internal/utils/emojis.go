package utils

import "strings"

// Lookups for workout kinds shown by the bot and the API.
func GetWorkoutName(kind string) string {
	switch strings.ToLower(kind) {
	case "run", "running":
		return "🏃 Run"
	case "walk", "walking":
		return "🚶 Walk"
	case "ride", "cycling", "bike":
		return "🚴 Ride"
	case "strength", "gym":
		return "🏋️ Strength"
	case "yoga":
		return "🧘 Yoga"
	case "swim", "swimming":
		return "🏊 Swim"
	default:
		return kind
	}
}

func GetWorkoutEmoji(kind string) string {
	switch strings.ToLower(kind) {
	case "run", "running":
		return "🏃"
	case "walk", "walking":
		return "🚶"
	case "ride", "cycling", "bike":
		return "🚴"
	case "strength", "gym":
		return "🏋️"
	case "yoga":
		return "🧘"
	case "swim", "swimming":
		return "🏊"
	default:
		return "💪"
	}
}

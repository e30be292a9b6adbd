package chat

import "strings"

type FAQEntry struct {
	Keyword string
	Answer  string
}

// FAQ is an ordered keyword table; the first matching entry wins.
type FAQ []FAQEntry

// Match does case-insensitive substring matching of every keyword against
// prompt.
func (f FAQ) Match(prompt string) (string, bool) {
	lower := strings.ToLower(prompt)
	for _, e := range f {
		if e.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(e.Keyword)) {
			return e.Answer, true
		}
	}
	return "", false
}

var SupportFAQ = FAQ{
	{
		Keyword: "password",
		Answer: "To reset your password, tap \"Forgot password?\" on the sign-in screen and enter your email. " +
			"We'll send you a reset link. If you're already signed in, go to Settings > Account > Change password.",
	},
	{
		Keyword: "delete my account",
		Answer: "You can delete your account from Settings > Account > Delete account. " +
			"This removes your profile, posts and followers permanently.",
	},
	{
		Keyword: "premium",
		Answer: "Tribe Premium unlocks advanced workout plans and weekly insights. " +
			"Manage your subscription from Settings > Subscription.",
	},
	{
		Keyword: "redeem",
		Answer: "Open the Rewards store, pick an item and tap Redeem. " +
			"The cost in Tribe Tokens is taken from your balance right away.",
	},
	{
		Keyword: "verified",
		Answer: "Verified badges are given to coaches and public figures. " +
			"Send us a request from Settings > Account > Request verification.",
	},
	{
		Keyword: "privacy",
		Answer: "You choose who sees your achievements and who you follow in Settings > Privacy.",
	},
	{
		Keyword: "sync",
		Answer: "Steps come from your phone's pedometer. Make sure motion and location permissions are enabled for Tribe.",
	},
}

var FitnessFAQ = FAQ{
	{
		Keyword: "token",
		Answer: "You earn 10 Tribe Tokens for every workout you log. " +
			"Spend them on rewards in the store.",
	},
	{
		Keyword: "calorie",
		Answer: "We estimate calories from your steps at about 0.04 kcal per step. " +
			"For workouts, your logged session adds on top of that.",
	},
	{
		Keyword: "step goal",
		Answer: "A good everyday target is 8,000 to 10,000 steps. " +
			"If you're starting out, add 1,000 steps a week until you get there.",
	},
}

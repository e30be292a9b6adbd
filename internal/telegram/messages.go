package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/rewards"
)

const redeemPrefix = "redeem_"

const welcomeText = `💪 <b>Welcome to Tribe!</b>

Move, log your workouts and earn Tribe Tokens you can spend in the store.`

const helpText = `Commands:
/stats - Today's activity and the last 7 days
/week - This week's report
/workout &lt;kind&gt; [minutes] - Log a workout (+10 tokens)
/store - Rewards store
/redeem &lt;item&gt; - Spend tokens on a reward
/support &lt;question&gt; - Ask the support assistant
/lang &lt;code&gt; - Assistant language
/help - This help

Any other message goes to Tribe Coach.`

func (b *Bot) SendMessageOrLogError(message string) {
	if err := b.SendMessage(message); err != nil {
		b.logger.Warn("telegram send failed", zap.Error(err))
	}
}

func formatHistory(days []health.DayEntry) string {
	var b strings.Builder
	b.WriteString("<b>Last 7 days</b>\n")
	for _, d := range days {
		fmt.Fprintf(&b, "%s  %d\n", d.Date, d.Steps)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStore(items []rewards.Item, balance int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛍 <b>Tribe Store</b>\n🪙 Balance: %d\n\n", balance)
	for _, it := range items {
		mark := "🔒"
		if it.Cost <= balance {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s <b>%s</b> - %d\n<i>%s</i>\n<code>%s</code>\n\n",
			mark, it.Icon, html.EscapeString(it.Title), it.Cost, html.EscapeString(it.Description), it.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func redeemKeyboard(items []rewards.Item) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s (%d)", it.Icon, it.Title, it.Cost),
				redeemPrefix+it.ID,
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatReply(bot, text string) string {
	icon := "🏋️ Coach"
	if bot == chat.SupportBot {
		icon = "🛟 Support"
	}
	return fmt.Sprintf("<b>%s</b>\n%s", icon, html.EscapeString(text))
}

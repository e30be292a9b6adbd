package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tribe-fitness/internal/health"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/services"
	"tribe-fitness/internal/utils"
)

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(welcomeText + "\n\n" + helpText)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(helpText)
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	snap := b.deps.State.Snapshot()
	b.SendMessageOrLogError(services.FormatDailySummary(snap) + "\n\n" + formatHistory(snap.DailySteps))
}

func (b *Bot) handleWeek(msg *tgbotapi.Message) {
	if b.deps.Analytics == nil {
		b.SendMessageOrLogError("📭 The activity journal is disabled")
		return
	}
	activity, err := b.deps.Analytics.GetWeeklyActivity()
	if err != nil {
		b.SendMessageOrLogError("❌ Could not build the weekly report")
		return
	}
	b.SendMessageOrLogError(services.FormatWeeklyReport(activity))
}

// handleWorkout handles "/workout <kind> [minutes]".
func (b *Bot) handleWorkout(msg *tgbotapi.Message) {
	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.SendMessageOrLogError("Usage: /workout &lt;kind&gt; [minutes]\nExample: /workout run 30")
		return
	}

	fields := map[string]any{"kind": strings.ToLower(args[0]), "source": "telegram"}
	if len(args) > 1 {
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			b.SendMessageOrLogError("❌ Minutes must be a positive number")
			return
		}
		fields["minutes"] = minutes
	}

	b.deps.State.LogWorkout(fields)
	b.SendMessageOrLogError(fmt.Sprintf(
		"%s <b>%s</b> logged!\n🪙 +%d tokens, balance %d",
		utils.GetWorkoutEmoji(args[0]), utils.GetWorkoutName(args[0]),
		health.TokensPerWorkout, b.deps.State.Tokens(),
	))
}

func (b *Bot) handleStore(msg *tgbotapi.Message) {
	items := b.deps.Store.Catalog().Items()
	reply := tgbotapi.NewMessage(b.chatID, formatStore(items, b.deps.State.Tokens()))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = redeemKeyboard(items)
	if _, err := b.bot.Send(reply); err != nil {
		b.logger.Warn("store message", zap.Error(err))
	}
}

func (b *Bot) handleRedeem(msg *tgbotapi.Message) {
	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.SendMessageOrLogError("Usage: /redeem &lt;item&gt;. See /store for the list")
		return
	}
	b.redeem(args[0])
}

func (b *Bot) redeem(itemID string) {
	r, err := b.deps.Store.Redeem(itemID)
	switch {
	case errors.Is(err, rewards.ErrUnknownItem):
		b.SendMessageOrLogError("❌ No such item. See /store")
	case errors.Is(err, rewards.ErrInsufficientTokens):
		item, _ := b.deps.Store.Catalog().Lookup(itemID)
		b.SendMessageOrLogError(fmt.Sprintf(
			"🪙 Not enough tokens for %s: it costs %d, you have %d",
			item.Title, item.Cost, b.deps.State.Tokens(),
		))
	case err != nil:
		b.SendMessageOrLogError("❌ Redemption failed")
	default:
		item, _ := b.deps.Store.Catalog().Lookup(r.ItemID)
		b.SendMessageOrLogError(fmt.Sprintf(
			"🎉 Redeemed %s <b>%s</b> for %d tokens\nBalance: %d",
			item.Icon, item.Title, r.Cost, r.BalanceAfter,
		))
	}
}

func (b *Bot) handleSupport(msg *tgbotapi.Message) {
	question := strings.Join(commandArgs(msg.Text), " ")
	if question == "" {
		b.SendMessageOrLogError("Usage: /support &lt;question&gt;")
		return
	}
	b.ask(b.deps.Support, question)
}

func (b *Bot) handleLang(msg *tgbotapi.Message) {
	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.SendMessageOrLogError(fmt.Sprintf("🌐 Current language: %s\nUsage: /lang &lt;%s&gt;",
			b.deps.Locales.Current().Name(), supportedCodes()))
		return
	}

	l, err := b.deps.Locales.Set(args[0])
	if err != nil {
		b.SendMessageOrLogError(fmt.Sprintf("❌ Unsupported language. Choose one of: %s", supportedCodes()))
		return
	}
	b.SendMessageOrLogError(fmt.Sprintf("🌐 Assistants will now reply in %s", l.Name()))
}

// commandArgs drops the command word.
func commandArgs(text string) []string {
	parts := strings.Fields(text)
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

func supportedCodes() string {
	codes := make([]string, 0, len(locale.Supported()))
	for _, l := range locale.Supported() {
		codes = append(codes, string(l))
	}
	return strings.Join(codes, "|")
}

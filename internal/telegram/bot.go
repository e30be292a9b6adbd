package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/services"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Deps struct {
	State     *health.State
	Store     *rewards.Store
	Fitness   *chat.Session
	Support   *chat.Session
	Locales   *locale.Registry
	Analytics *services.AnalyticsService
	Logger    *zap.Logger
}

type Bot struct {
	bot      botAPI
	username string
	chatID   int64
	deps     Deps
	logger   *zap.Logger
	handlers map[string]func(*tgbotapi.Message)
	wg       sync.WaitGroup
}

func NewBot(token string, chatID int64, deps Deps) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	b := newBot(botAPI, chatID, deps)
	b.username = botAPI.Self.UserName
	b.logger.Info("bot initialized", zap.String("username", b.username))
	return b, nil
}

func newBot(api botAPI, chatID int64, deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bot{
		bot:      api,
		chatID:   chatID,
		deps:     deps,
		logger:   logger,
		handlers: make(map[string]func(*tgbotapi.Message)),
	}
	b.registerHandlers()
	return b
}

func (b *Bot) registerHandlers() {
	b.handlers["/start"] = b.handleStart
	b.handlers["/help"] = b.handleHelp
	b.handlers["/stats"] = b.handleStats
	b.handlers["/week"] = b.handleWeek
	b.handlers["/workout"] = b.handleWorkout
	b.handlers["/store"] = b.handleStore
	b.handlers["/redeem"] = b.handleRedeem
	b.handlers["/support"] = b.handleSupport
	b.handlers["/lang"] = b.handleLang
}

// SendMessage implements services.NotificationSender.
func (b *Bot) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.bot.Send(msg)
	return err
}

// SendRewardOffer implements services.NotificationSender.
func (b *Bot) SendRewardOffer(item rewards.Item, balance int) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf(
		"🎁 You have <b>%d</b> tokens, enough for %s <b>%s</b> (%d).",
		balance, item.Icon, item.Title, item.Cost,
	))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = redeemKeyboard([]rewards.Item{item})
	_, err := b.bot.Send(msg)
	return err
}

func (b *Bot) GetUsername() string {
	return b.username
}

// Start polls for updates until ctx is done, then waits for pending
// assistant replies.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)
	defer b.wg.Wait()
	defer b.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
		b.logger.Warn("message from unknown chat dropped")
		return
	}

	b.handleMessage(update.Message)
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if !strings.HasPrefix(text, "/") {
		b.ask(b.deps.Fitness, text)
		return
	}

	command := strings.Fields(text)[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	if handler, exists := b.handlers[strings.ToLower(command)]; exists {
		handler(msg)
		return
	}
	b.SendMessageOrLogError("❌ Unknown command. Use /help")
}

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "✅")); err != nil {
			b.logger.Debug("callback ack", zap.Error(err))
		}
	}()

	if callback.Message == nil || callback.Message.Chat == nil || callback.Message.Chat.ID != b.chatID {
		return
	}

	data := callback.Data
	b.logger.Debug("callback", zap.String("data", data))

	if strings.HasPrefix(data, redeemPrefix) {
		b.redeem(strings.TrimPrefix(data, redeemPrefix))
	}
}

// ask forwards text to an assistant and posts the reply when it arrives.
// Superseded prompts get no reply.
func (b *Bot) ask(session *chat.Session, text string) {
	if session == nil {
		b.SendMessageOrLogError("🤖 The assistant is not available")
		return
	}

	if _, err := b.bot.Request(tgbotapi.NewChatAction(b.chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("typing action", zap.Error(err))
	}

	replies := session.Send(text)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		reply, ok := <-replies
		if !ok {
			return
		}
		b.SendMessageOrLogError(formatReply(session.Profile().Name, reply.Text))
	}()
}

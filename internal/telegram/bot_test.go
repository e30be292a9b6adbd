package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testChatID int64 = 42

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	return "<" + prompt + ">", nil
}

func newTestBot(t *testing.T, tokens int) (*Bot, *fakeAPI, *health.State) {
	t.Helper()
	state := health.New(health.WithTokens(tokens))
	fitnessProfile := chat.FitnessProfile()
	fitnessProfile.CannedDelay = 0
	supportProfile := chat.SupportProfile()
	supportProfile.CannedDelay = 0
	fitness := chat.NewSession(fitnessProfile, echoCompleter{})
	support := chat.NewSession(supportProfile, echoCompleter{})
	t.Cleanup(func() {
		fitness.Close()
		support.Close()
	})

	api := newFakeAPI()
	b := newBot(api, testChatID, Deps{
		State:   state,
		Store:   rewards.NewStore(rewards.DefaultCatalog(), state),
		Fitness: fitness,
		Support: support,
		Locales: locale.NewRegistry(locale.English),
	})
	return b, api, state
}

func message(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: testChatID}}}
}

func TestUnknownChatIgnored(t *testing.T) {
	b, api, _ := newTestBot(t, 0)
	b.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Text: "/stats", Chat: &tgbotapi.Chat{ID: 7}}})
	assert.Empty(t, api.texts())
}

func TestWorkoutCommand(t *testing.T) {
	b, api, state := newTestBot(t, 0)

	b.handleUpdate(message("/workout Run 30"))
	assert.Equal(t, 10, state.Tokens())
	assert.Contains(t, api.last().Text, "🏃 Run")
	assert.Contains(t, api.last().Text, "balance 10")

	w := state.Workouts()
	require.Len(t, w, 1)
	assert.Equal(t, "run", w[0].Fields["kind"])
	assert.Equal(t, 30, w[0].Fields["minutes"])

	b.handleUpdate(message("/workout yoga abc"))
	assert.Contains(t, api.last().Text, "positive number")
	assert.Len(t, state.Workouts(), 1)

	b.handleUpdate(message("/workout"))
	assert.Contains(t, api.last().Text, "Usage")
}

func TestStoreAndRedeem(t *testing.T) {
	b, api, state := newTestBot(t, 35)

	b.handleUpdate(message("/store"))
	storeMsg := api.last()
	assert.Contains(t, storeMsg.Text, "Balance: 35")
	keyboard, ok := storeMsg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, keyboard.InlineKeyboard, len(rewards.DefaultCatalog().Items()))

	b.handleUpdate(message("/redeem water-bottle"))
	assert.Contains(t, api.last().Text, "Not enough tokens")
	assert.Equal(t, 35, state.Tokens())

	b.handleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    redeemPrefix + "protein-bar",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID}},
	}})
	assert.Contains(t, api.last().Text, "Redeemed")
	assert.Equal(t, 5, state.Tokens())

	b.handleUpdate(message("/redeem unicorn"))
	assert.Contains(t, api.last().Text, "No such item")
}

func TestPlainTextGoesToCoach(t *testing.T) {
	b, api, _ := newTestBot(t, 0)

	b.handleUpdate(message("plan my week"))
	b.wg.Wait()
	assert.Equal(t, "<b>🏋️ Coach</b>\n&lt;plan my week&gt;", api.last().Text)

	b.handleUpdate(message("/support how do I reset my password?"))
	b.wg.Wait()
	answer, _ := chat.SupportFAQ.Match("password")
	assert.Contains(t, api.last().Text, "🛟 Support")
	assert.Contains(t, api.last().Text, answer[:20])
}

func TestLangCommand(t *testing.T) {
	b, api, _ := newTestBot(t, 0)

	b.handleUpdate(message("/lang fr"))
	assert.Contains(t, api.last().Text, "French")
	assert.Equal(t, locale.French, b.deps.Locales.Current())

	b.handleUpdate(message("/lang xx"))
	assert.Contains(t, api.last().Text, "Unsupported")
}

func TestStatsAndUnknown(t *testing.T) {
	b, api, state := newTestBot(t, 0)
	state.OnStepUpdate(2500)

	b.handleUpdate(message("/stats@tribe_bot"))
	assert.Contains(t, api.last().Text, "Steps: 2500")
	assert.Contains(t, api.last().Text, "Last 7 days")

	b.handleUpdate(message("/week"))
	assert.Contains(t, api.last().Text, "journal is disabled")

	b.handleUpdate(message("/dance"))
	assert.Contains(t, api.last().Text, "Unknown command")
}

func TestStartStopsOnCancel(t *testing.T) {
	b, api, _ := newTestBot(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	api.updates <- message("/help")
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.Contains(t, api.texts()[0], "/workout")
}

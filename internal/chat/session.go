// Package chat runs the in-app assistants: a linear transcript, a canned FAQ
// table checked first and a remote chat-completion fallback.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tribe-fitness/internal/locale"
)

// Completer is a remote chat-completion provider.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

var errNoCompleter = errors.New("no chat provider configured")

// Apology is the transcript entry written when the remote call fails.
func Apology(err error) string {
	return fmt.Sprintf("Sorry, I couldn't reach the assistant: %s", err.Error())
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLocale makes replies follow the registry's language.
func WithLocale(reg *locale.Registry) Option {
	return func(s *Session) { s.locales = reg }
}

// Session holds one conversation. Every Send supersedes the previous one: its
// in-flight request is cancelled and a late result is dropped, so only the
// newest request's reply is appended.
type Session struct {
	profile   Profile
	completer Completer
	logger    *zap.Logger
	now       func() time.Time
	locales   *locale.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	messages   []Message
	typing     bool
	generation uint64
	inFlight   context.CancelFunc
	language   locale.Locale
	closed     bool

	lmu       sync.RWMutex
	listeners map[int]func(Message)
	nextID    int

	unsubscribeLocale func()
}

func NewSession(profile Profile, completer Completer, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		profile:   profile,
		completer: completer,
		logger:    zap.NewNop(),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		language:  locale.English,
		listeners: make(map[int]func(Message)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("bot", profile.Name))

	if s.locales != nil {
		s.language = s.locales.Current()
		s.unsubscribeLocale = s.locales.Subscribe(func(l locale.Locale) {
			s.mu.Lock()
			s.language = l
			s.mu.Unlock()
		})
	}
	return s
}

func (s *Session) Profile() Profile { return s.profile }

// Send appends the user's message and resolves the reply in the background.
// The returned channel yields the bot reply and is then closed; it is closed
// without a value when the prompt is blank, the session is closed, or a
// newer Send superseded this one.
func (s *Session) Send(prompt string) <-chan Message {
	return s.send(prompt, "")
}

// SendImage appends an image message. A non-blank caption is answered like
// a normal prompt.
func (s *Session) SendImage(uri, caption string) <-chan Message {
	return s.send(caption, uri)
}

func (s *Session) send(prompt, image string) <-chan Message {
	out := make(chan Message, 1)
	text := strings.TrimSpace(prompt)
	if text == "" && image == "" {
		close(out)
		return out
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(out)
		return out
	}
	userMsg := s.newMessageLocked(text, true)
	userMsg.Image = image
	userMsg.Read = true
	s.messages = append(s.messages, userMsg)

	if text == "" {
		s.mu.Unlock()
		s.notify(userMsg)
		close(out)
		return out
	}

	s.generation++
	gen := s.generation
	if s.inFlight != nil {
		s.inFlight()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.inFlight = cancel
	s.typing = true
	system := s.systemPromptLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify(userMsg)
	go s.resolve(ctx, cancel, gen, text, system, out)
	return out
}

func (s *Session) resolve(ctx context.Context, cancel context.CancelFunc, gen uint64, prompt, system string, out chan<- Message) {
	defer s.wg.Done()
	defer close(out)
	defer cancel()

	var reply string
	if answer, ok := s.profile.FAQ.Match(prompt); ok {
		s.logger.Debug("faq match", zap.Uint64("generation", gen))
		timer := time.NewTimer(s.profile.CannedDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		reply = answer
	} else {
		completer := s.completer
		var text string
		var err error
		if completer == nil {
			err = errNoCompleter
		} else {
			text, err = completer.Complete(ctx, system, prompt)
		}
		if ctx.Err() != nil {
			s.logger.Debug("reply superseded", zap.Uint64("generation", gen))
			return
		}
		if err != nil {
			s.logger.Warn("chat completion failed", zap.Error(err))
			reply = Apology(err)
		} else {
			reply = text
		}
	}

	msg, ok := s.appendReply(gen, reply)
	if !ok {
		return
	}
	out <- msg
}

func (s *Session) appendReply(gen uint64, text string) (Message, bool) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return Message{}, false
	}
	msg := s.newMessageLocked(text, false)
	s.messages = append(s.messages, msg)
	s.typing = false
	s.inFlight = nil
	s.mu.Unlock()

	s.notify(msg)
	return msg, true
}

func (s *Session) newMessageLocked(text string, isUser bool) Message {
	now := s.now()
	return Message{
		ID:     uuid.NewString(),
		Text:   text,
		IsUser: isUser,
		Time:   now.Format("15:04"),
		SentAt: now,
	}
}

func (s *Session) systemPromptLocked() string {
	if s.language == "" || s.language == locale.English {
		return s.profile.SystemPrompt
	}
	return s.profile.SystemPrompt + " Reply in " + s.language.Name() + "."
}

// SystemPrompt returns the prompt sent with remote requests for the current
// language.
func (s *Session) SystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemPromptLocked()
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

func (s *Session) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// ToggleReaction adds or removes a reaction on a message.
func (s *Session) ToggleReaction(messageID, reaction string) (Message, error) {
	reaction = strings.TrimSpace(reaction)
	if reaction == "" {
		return Message{}, errors.New("empty reaction")
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].toggle(reaction)
			msg := s.messages[i].clone()
			s.mu.Unlock()
			s.notify(msg)
			return msg, nil
		}
	}
	s.mu.Unlock()
	return Message{}, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
}

// MarkRead marks every bot message as read and reports how many changed.
func (s *Session) MarkRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.messages {
		if !s.messages[i].Read {
			s.messages[i].Read = true
			n++
		}
	}
	return n
}

// Subscribe registers fn for every appended or updated message.
func (s *Session) Subscribe(fn func(Message)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Session) notify(m Message) {
	s.lmu.RLock()
	fns := make([]func(Message), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.RUnlock()

	for _, fn := range fns {
		fn(m.clone())
	}
}

// Close cancels pending work and waits for it to finish. Later sends are
// ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.typing = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	if s.unsubscribeLocale != nil {
		s.unsubscribeLocale()
	}
}

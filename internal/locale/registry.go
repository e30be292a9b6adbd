// Package locale tracks the active UI language and notifies subscribers when
// it changes.
package locale

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

type Locale string

const (
	English    Locale = "en"
	Spanish    Locale = "es"
	French     Locale = "fr"
	German     Locale = "de"
	Portuguese Locale = "pt"
)

var names = map[Locale]string{
	English:    "English",
	Spanish:    "Spanish",
	French:     "French",
	German:     "German",
	Portuguese: "Portuguese",
}

// Name returns the English name of the language.
func (l Locale) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return string(l)
}

func Parse(code string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := names[l]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
	}
	return l, nil
}

func Supported() []Locale {
	return []Locale{English, Spanish, French, German, Portuguese}
}

type Registry struct {
	mu        sync.RWMutex
	current   Locale
	listeners map[int]func(Locale)
	nextID    int
}

func NewRegistry(initial Locale) *Registry {
	if _, ok := names[initial]; !ok {
		initial = English
	}
	return &Registry{current: initial, listeners: make(map[int]func(Locale))}
}

func (r *Registry) Current() Locale {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Set switches the locale. Subscribers are called only when the value
// actually changes, outside the registry lock.
func (r *Registry) Set(code string) (Locale, error) {
	l, err := Parse(code)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	if r.current == l {
		r.mu.Unlock()
		return l, nil
	}
	r.current = l
	listeners := make([]func(Locale), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(l)
	}
	return l, nil
}

func (r *Registry) Subscribe(fn func(Locale)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

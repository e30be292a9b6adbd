package chat

import (
	"errors"
	"sort"
	"time"
)

var ErrMessageNotFound = errors.New("message not found")

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Reactions []string  `json:"reactions,omitempty"`
	Image     string    `json:"image,omitempty"`
	Time      string    `json:"time,omitempty"`
	Read      bool      `json:"read"`
	SentAt    time.Time `json:"sent_at"`
}

// HasReaction reports whether r is in the reaction set.
func (m Message) HasReaction(r string) bool {
	i := sort.SearchStrings(m.Reactions, r)
	return i < len(m.Reactions) && m.Reactions[i] == r
}

func (m Message) clone() Message {
	if m.Reactions != nil {
		m.Reactions = append([]string(nil), m.Reactions...)
	}
	return m
}

// toggle adds r to the set or removes it when present. Reactions stay sorted.
func (m *Message) toggle(r string) {
	i := sort.SearchStrings(m.Reactions, r)
	if i < len(m.Reactions) && m.Reactions[i] == r {
		m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
		return
	}
	m.Reactions = append(m.Reactions, "")
	copy(m.Reactions[i+1:], m.Reactions[i:])
	m.Reactions[i] = r
}

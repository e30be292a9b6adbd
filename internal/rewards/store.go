// Package rewards is the Tribe Token store: a static catalog and the
// redemption rule that debits the token balance.
package rewards

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownItem        = errors.New("unknown store item")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Icon        string `json:"icon"`
}

type Redemption struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Cost         int       `json:"cost"`
	BalanceAfter int       `json:"balance_after"`
	At           time.Time `json:"at"`
}

// Ledger is the part of the health state the store needs.
type Ledger interface {
	RedeemTokens(cost int) bool
	Tokens() int
}

type Catalog struct {
	items []Item
	byID  map[string]Item
}

func NewCatalog(items []Item) *Catalog {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cost < sorted[j].Cost })

	byID := make(map[string]Item, len(sorted))
	for _, it := range sorted {
		byID[it.ID] = it
	}
	return &Catalog{items: sorted, byID: byID}
}

func DefaultCatalog() *Catalog {
	return NewCatalog([]Item{
		{ID: "water-bottle", Title: "Tribe Water Bottle", Description: "Insulated 750ml bottle with the tribe logo", Cost: 50, Icon: "💧"},
		{ID: "protein-bar", Title: "Protein Bar Pack", Description: "Box of 6 protein bars from our partner brand", Cost: 30, Icon: "🍫"},
		{ID: "premium-week", Title: "Premium Week", Description: "7 days of premium workouts and insights", Cost: 100, Icon: "⭐"},
		{ID: "gym-pass", Title: "Partner Gym Day Pass", Description: "One day of access at a partner gym", Cost: 150, Icon: "🏋️"},
		{ID: "tshirt", Title: "Tribe T-Shirt", Description: "Breathable training tee", Cost: 200, Icon: "👕"},
		{ID: "coaching-call", Title: "1:1 Coaching Call", Description: "30 minute call with a certified coach", Cost: 500, Icon: "📞"},
	})
}

// Items returns the catalog ordered by cost.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id string) (Item, bool) {
	it, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return it, ok
}

// Recorder receives every successful redemption, e.g. the local journal.
type Recorder interface {
	RecordRedemption(r Redemption)
}

type Store struct {
	catalog  *Catalog
	ledger   Ledger
	recorder Recorder
	now      func() time.Time
}

func NewStore(catalog *Catalog, ledger Ledger) *Store {
	return &Store{catalog: catalog, ledger: ledger, now: time.Now}
}

func (s *Store) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Store) Catalog() *Catalog { return s.catalog }

// Redeem debits the item's cost if the balance covers it. Nothing changes on
// error.
func (s *Store) Redeem(itemID string) (Redemption, error) {
	item, ok := s.catalog.Lookup(itemID)
	if !ok {
		return Redemption{}, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	if !s.ledger.RedeemTokens(item.Cost) {
		return Redemption{}, fmt.Errorf("%w: %s costs %d, balance is %d",
			ErrInsufficientTokens, item.ID, item.Cost, s.ledger.Tokens())
	}
	r := Redemption{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		Cost:         item.Cost,
		BalanceAfter: s.ledger.Tokens(),
		At:           s.now(),
	}
	if s.recorder != nil {
		s.recorder.RecordRedemption(r)
	}
	return r, nil
}

// Package reward builds the concrete quest rewards named in quest content.
package reward

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// Reward kinds accepted in quest content
const (
	KindItem       = "item"
	KindGold       = "gold"
	KindExperience = "experience"
	KindTitle      = "title"
)

// GrantTimeout bounds a single call to the Grantor.
const GrantTimeout = 5 * time.Second

// ErrGrantorUnavailable is returned by Give when no Grantor is configured
var ErrGrantorUnavailable = errors.New("reward grantor unavailable")

// Grant is one reward handed to a player
type Grant struct {
	QuestCode string
	Kind      string
	ID        string
	Amount    int
}

// Grantor delivers grants to a player's inventory, wallet or ledger
type Grantor interface {
	Grant(ctx context.Context, playerID string, g Grant) error
}

// GrantorFunc adapts a function to Grantor
type GrantorFunc func(ctx context.Context, playerID string, g Grant) error

func (f GrantorFunc) Grant(ctx context.Context, playerID string, g Grant) error {
	return f(ctx, playerID, g)
}

// Reward is a quest.Reward that hands a fixed grant to the quest's player.
type Reward struct {
	kind    string
	id      string
	amount  int
	grantor Grantor
}

// New validates def and returns a Reward delivered through grantor.
func New(def quest.RewardDefinition, grantor Grantor) (*Reward, error) {
	kind := strings.ToLower(strings.TrimSpace(def.Type))
	r := &Reward{kind: kind, id: def.ID, amount: def.Amount, grantor: grantor}

	switch kind {
	case KindItem:
		if def.ID == "" {
			return nil, fmt.Errorf("item reward needs an id")
		}
		if r.amount == 0 {
			r.amount = 1
		}
	case KindGold, KindExperience:
		if def.Amount <= 0 {
			return nil, fmt.Errorf("%s reward needs a positive amount", kind)
		}
	case KindTitle:
		if def.ID == "" {
			return nil, fmt.Errorf("title reward needs an id")
		}
	default:
		return nil, fmt.Errorf("unknown reward type %q", def.Type)
	}

	if r.amount < 0 {
		return nil, fmt.Errorf("%s reward amount must not be negative", kind)
	}
	return r, nil
}

// Factory returns a quest.RewardFactory whose rewards use grantor.
func Factory(grantor Grantor) quest.RewardFactory {
	return func(def quest.RewardDefinition) (quest.Reward, error) {
		return New(def, grantor)
	}
}

func (r *Reward) Kind() string { return r.kind }
func (r *Reward) ID() string   { return r.id }
func (r *Reward) Amount() int  { return r.amount }

// Give delivers the reward to the player owning q.
func (r *Reward) Give(q *quest.Quest) error {
	if r.grantor == nil {
		return ErrGrantorUnavailable
	}

	playerID := ""
	if sys := q.System(); sys != nil {
		playerID = sys.PlayerID()
	}
	if playerID == "" {
		return fmt.Errorf("quest %s has no player", q.CodeName())
	}

	ctx, cancel := context.WithTimeout(context.Background(), GrantTimeout)
	defer cancel()

	return r.grantor.Grant(ctx, playerID, Grant{
		QuestCode: q.CodeName(),
		Kind:      r.kind,
		ID:        r.id,
		Amount:    r.amount,
	})
}

// Description renders the reward for listings, e.g. "3x potion" or "100 gold".
func (r *Reward) Description() string {
	switch r.kind {
	case KindItem:
		if r.amount == 1 {
			return r.id
		}
		return fmt.Sprintf("%dx %s", r.amount, r.id)
	case KindTitle:
		return fmt.Sprintf("title %q", r.id)
	case KindExperience:
		return fmt.Sprintf("%d experience", r.amount)
	default:
		return fmt.Sprintf("%d %s", r.amount, r.kind)
	}
}

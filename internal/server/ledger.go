package server

import (
	"context"

	"github.com/jglee22/OpenHorizons-sub001/internal/database"
	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
	"github.com/jglee22/OpenHorizons-sub001/internal/reward"
)

// GrantedItemsProvider is the content name of the provider that starts a
// task at the amount of its target items already granted to the player.
const GrantedItemsProvider = "granted_items"

// LedgerAdapter records quest rewards in the SQL reward ledger.
type LedgerAdapter struct {
	db *database.Database
}

// NewLedgerAdapter wraps db as a reward.Grantor.
func NewLedgerAdapter(db *database.Database) *LedgerAdapter {
	return &LedgerAdapter{db: db}
}

// Grant implements reward.Grantor.
func (a *LedgerAdapter) Grant(ctx context.Context, playerID string, g reward.Grant) error {
	id, err := a.db.RecordGrant(ctx, database.RewardGrant{
		PlayerID:  playerID,
		QuestCode: g.QuestCode,
		Kind:      g.Kind,
		RewardID:  g.ID,
		Amount:    g.Amount,
	})
	if err != nil {
		return err
	}
	logger.Audit("Reward granted",
		"grant_id", id,
		"player", playerID,
		"quest", g.QuestCode,
		"kind", g.Kind,
		"reward_id", g.ID,
		"amount", g.Amount)
	return nil
}

// GrantedItems returns an initial success provider summing the ledger's
// item grants for every string target of the task.
func (a *LedgerAdapter) GrantedItems() quest.InitialSuccess {
	return quest.InitialSuccessFunc(func(task *quest.Task) int {
		owner := task.Owner()
		if owner == nil || owner.System() == nil {
			return 0
		}
		playerID := owner.System().PlayerID()

		ctx, cancel := context.WithTimeout(context.Background(), reward.GrantTimeout)
		defer cancel()

		total := 0
		for _, target := range task.Targets() {
			item, ok := target.(quest.StringTarget)
			if !ok {
				continue
			}
			amount, err := a.db.GrantedAmount(ctx, playerID, reward.KindItem, string(item))
			if err != nil {
				logger.Warning("Failed to read granted items",
					"player", playerID,
					"item", string(item),
					"error", err)
				continue
			}
			total += amount
		}
		return total
	})
}

// auditGrantor logs grants when no ledger is configured
func auditGrantor() reward.Grantor {
	return reward.GrantorFunc(func(ctx context.Context, playerID string, g reward.Grant) error {
		logger.Audit("Reward granted",
			"player", playerID,
			"quest", g.QuestCode,
			"kind", g.Kind,
			"reward_id", g.ID,
			"amount", g.Amount,
			"ledger", false)
		return nil
	})
}

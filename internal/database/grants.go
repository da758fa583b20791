package database

import (
	"context"
	"fmt"
	"time"
)

// RewardGrant is one reward handed to a player on quest completion.
type RewardGrant struct {
	ID        int64
	PlayerID  string
	QuestCode string
	Kind      string
	RewardID  string
	Amount    int
	GrantedAt time.Time
}

// RecordGrant appends g to the reward ledger and returns its id.
func (d *Database) RecordGrant(ctx context.Context, g RewardGrant) (int64, error) {
	if g.PlayerID == "" || g.Kind == "" {
		return 0, fmt.Errorf("grant requires a player and a kind")
	}
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now()
	}

	id, err := d.dialect.InsertID(ctx, d.db, d.q.insertGrant, "id",
		g.PlayerID, g.QuestCode, g.Kind, g.RewardID, g.Amount, g.GrantedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to record grant: %w", err)
	}
	return id, nil
}

// GrantedAmount sums the amounts granted to a player for one kind and reward id.
func (d *Database) GrantedAmount(ctx context.Context, playerID, kind, rewardID string) (int, error) {
	var total int
	err := d.db.QueryRowContext(ctx, d.q.sumGrants, playerID, kind, rewardID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum grants: %w", err)
	}
	return total, nil
}

// GrantsForPlayer returns a player's grants, oldest first.
func (d *Database) GrantsForPlayer(ctx context.Context, playerID string) ([]RewardGrant, error) {
	rows, err := d.db.QueryContext(ctx, d.q.playerGrants, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []RewardGrant
	for rows.Next() {
		var (
			g       RewardGrant
			granted int64
		)
		if err := rows.Scan(&g.ID, &g.PlayerID, &g.QuestCode, &g.Kind, &g.RewardID, &g.Amount, &granted); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.GrantedAt = time.Unix(granted, 0)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

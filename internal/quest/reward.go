package quest

// Reward is an effect given once when a quest completes.
// Concrete rewards (items, gold, titles) live outside this package.
type Reward interface {
	// Give applies the reward for the quest's player. An error is logged
	// by the quest and never stops completion.
	Give(q *Quest) error

	// Description is a short human-readable summary for logs and listings
	Description() string
}

// RewardDefinition is the authored form of a reward before it is built
type RewardDefinition struct {
	Type   string // item, gold, experience, title
	ID     string // Item ID or title name
	Amount int
}

// RewardFactory builds a Reward from its authored form
type RewardFactory func(def RewardDefinition) (Reward, error)

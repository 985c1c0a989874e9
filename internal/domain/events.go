package domain

type RaffleEventType string

const (
	EventStatsChanged   RaffleEventType = "stats_changed"
	EventWinnerDrawn    RaffleEventType = "winner_drawn"
	EventDrawRolledOver RaffleEventType = "draw_rolled_over"
	EventPrizeRevoked   RaffleEventType = "prize_revoked"
)

// RaffleEvent is pushed to live subscribers of a raffle.
type RaffleEvent struct {
	RaffleID uint            `json:"raffle_id"`
	Type     RaffleEventType `json:"type"`
	Payload  any             `json:"payload,omitempty"`
}

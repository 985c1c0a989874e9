package domain

import "time"

const DefaultLotteryName = "Lotería del Táchira"

type Prize struct {
	ID                    uint       `json:"id"`
	RaffleID              uint       `json:"raffle_id"`
	DisplayOrder          int        `json:"display_order"`
	LevelTitle            string     `json:"level_title"`
	Name                  string     `json:"name"`
	Description           string     `json:"description,omitempty"`
	WinnerParticipationID *uint      `json:"winner_participation_id,omitempty"`
	WinnerTicketNumber    *int       `json:"winner_ticket_number,omitempty"`
	DeliveredAt           *time.Time `json:"delivered_at,omitempty"`
	Draws                 []Draw     `json:"draws,omitempty"`
}

func (p Prize) HasWinner() bool {
	return p.WinnerParticipationID != nil
}

func (p Prize) IsDelivered() bool {
	return p.DeliveredAt != nil
}

func (p *Prize) AssignWinner(participationID uint, ticketNumber int) {
	p.WinnerParticipationID = &participationID
	p.WinnerTicketNumber = &ticketNumber
}

func (p *Prize) ResetWinner() {
	p.WinnerParticipationID = nil
	p.WinnerTicketNumber = nil
}

type DrawStatus string

const (
	DrawScheduled  DrawStatus = "SCHEDULED"
	DrawCompleted  DrawStatus = "COMPLETED"
	DrawRolledOver DrawStatus = "ROLLED_OVER"
)

// RolloverDelay separates a rolled over draw from its replacement.
const RolloverDelay = 24 * time.Hour

type Draw struct {
	ID            uint       `json:"id"`
	PrizeID       uint       `json:"prize_id"`
	LotteryName   string     `json:"lottery_name"`
	DrawTime      time.Time  `json:"draw_time"`
	WinningNumber *int       `json:"winning_number,omitempty"`
	Status        DrawStatus `json:"status"`
}

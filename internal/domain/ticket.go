package domain

import "time"

type Ticket struct {
	ID              uint      `json:"id"`
	RaffleID        uint      `json:"raffle_id"`
	ParticipationID uint      `json:"participation_id"`
	Number          int       `json:"ticket_number"`
	AssignedAt      time.Time `json:"assigned_at"`
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type Participation struct {
	ID                       uint      `json:"id"`
	RaffleID                 uint      `json:"raffle_id"`
	FullName                 string    `json:"full_name"`
	Phone                    string    `json:"phone"`
	Email                    string    `json:"email"`
	IdentificationNumber     string    `json:"identification_number"`
	PhoneHash                string    `json:"-"`
	EmailHash                string    `json:"-"`
	IdentificationNumberHash string    `json:"-"`
	TicketCount              int       `json:"ticket_count"`
	Tickets                  []Ticket  `json:"tickets,omitempty"`
	Payment                  *Payment  `json:"payment,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// HashContact normalizes a contact value and returns its sha256 hex digest.
func HashContact(value string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(value))))

	return hex.EncodeToString(sum[:])
}

func (p *Participation) ComputeHashes() {
	p.PhoneHash = HashContact(p.Phone)
	p.EmailHash = HashContact(p.Email)
	p.IdentificationNumberHash = HashContact(p.IdentificationNumber)
}

package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketNumberTaken = errors.New("ticket number already assigned")
)

const ticketNumberConstraint = "idx_tickets_raffle_number"

type Ticket struct {
	ID uint `gorm:"primaryKey"`

	RaffleID        uint      `gorm:"not null;uniqueIndex:idx_tickets_raffle_number,priority:1"`
	ParticipationID uint      `gorm:"not null;index"`
	TicketNumber    int       `gorm:"not null;uniqueIndex:idx_tickets_raffle_number,priority:2"`
	AssignedAt      time.Time `gorm:"not null"`
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// AssignedNumbers returns every ticket number already taken in the raffle.
func (d *TicketDAO) AssignedNumbers(ctx context.Context, raffleID uint) ([]int, error) {
	var numbers []int

	result := conn(ctx, d.db).Model(&Ticket{}).Where("raffle_id = ?", raffleID).Pluck("ticket_number", &numbers)
	if result.Error != nil {
		return nil, result.Error
	}

	return numbers, nil
}

func (d *TicketDAO) CountByParticipation(ctx context.Context, participationID uint) (int64, error) {
	var count int64

	result := conn(ctx, d.db).Model(&Ticket{}).Where("participation_id = ?", participationID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *TicketDAO) InsertBatch(ctx context.Context, tickets []Ticket) ([]Ticket, error) {
	if len(tickets) == 0 {
		return tickets, nil
	}

	result := conn(ctx, d.db).CreateInBatches(&tickets, 500)
	if result.Error != nil {
		if isUniqueViolation(result.Error, ticketNumberConstraint) {
			return nil, ErrTicketNumberTaken
		}

		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) DeleteByParticipation(ctx context.Context, participationID uint) (int64, error) {
	result := conn(ctx, d.db).Where("participation_id = ?", participationID).Delete(&Ticket{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *TicketDAO) FindByNumber(ctx context.Context, raffleID uint, number int) (Ticket, error) {
	var ticket Ticket

	result := conn(ctx, d.db).Where("raffle_id = ? AND ticket_number = ?", raffleID, number).First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) ListByParticipation(ctx context.Context, participationID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := conn(ctx, d.db).Where("participation_id = ?", participationID).Order("ticket_number").Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

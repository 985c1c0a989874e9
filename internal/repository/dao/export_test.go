package dao

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// RequireTestDB exposes the migrated postgres to the dao_test package.
func RequireTestDB(t *testing.T) *gorm.DB {
	return requireDB(t)
}

func SeedRaffle(t *testing.T, db *gorm.DB, total int) (Raffle, PaymentMethod) {
	s := seedRaffle(t, db, total)

	return s.raffle, s.method
}

func InsertParticipation(t *testing.T, db *gorm.DB, raffleID uint, count int) Participation {
	return insertParticipation(t, db, raffleID, count)
}

func InsertPendingPayment(t *testing.T, db *gorm.DB, participationID, methodID uint) Payment {
	p, err := insertPayment(t, db, participationID, methodID, fmt.Sprintf("pending-%d", participationID), "PENDING")
	require.NoError(t, err)

	return p
}

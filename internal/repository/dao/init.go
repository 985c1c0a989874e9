package dao

import (
	"fmt"

	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Bank{},
		&PaymentMethod{},
		&Raffle{},
		&Participation{},
		&Payment{},
		&Ticket{},
		&Prize{},
		&Draw{},
		&ExchangeRate{},
		&AuditEntry{},
	)
	if err != nil {
		return err
	}

	if err = seedBanks(db); err != nil {
		return fmt.Errorf("seedBanks -> %w", err)
	}

	return nil
}

package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrExchangeRateNotFound = errors.New("exchange rate not found")

type ExchangeRate struct {
	ID uint `gorm:"primaryKey"`

	Date   time.Time       `gorm:"type:date;unique;not null"`
	Rate   decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	Source string          `gorm:"size:20;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ExchangeRateDAO struct {
	db *gorm.DB
}

func NewExchangeRateDAO(db *gorm.DB) *ExchangeRateDAO {
	return &ExchangeRateDAO{
		db: db,
	}
}

// LatestOnOrBefore returns the most recent rate effective on the given date.
func (d *ExchangeRateDAO) LatestOnOrBefore(ctx context.Context, date time.Time) (ExchangeRate, error) {
	var rate ExchangeRate

	result := conn(ctx, d.db).Where("date <= ?", date.Format(time.DateOnly)).Order("date DESC").First(&rate)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ExchangeRate{}, ErrExchangeRateNotFound
		}

		return ExchangeRate{}, result.Error
	}

	return rate, nil
}

func (d *ExchangeRateDAO) ExistsAfter(ctx context.Context, date time.Time) (bool, error) {
	var count int64

	result := conn(ctx, d.db).Model(&ExchangeRate{}).Where("date > ?", date.Format(time.DateOnly)).Limit(1).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// FirstOrCreate keeps an existing rate for the date untouched. The bool
// reports whether a new row was written.
func (d *ExchangeRateDAO) FirstOrCreate(ctx context.Context, rate ExchangeRate) (ExchangeRate, bool, error) {
	db := conn(ctx, d.db)

	var found ExchangeRate
	result := db.Where("date = ?", rate.Date.Format(time.DateOnly)).First(&found)
	if result.Error == nil {
		return found, false, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ExchangeRate{}, false, result.Error
	}

	result = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rate)
	if result.Error != nil {
		return ExchangeRate{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race against another writer for the same date.
		found, err := d.LatestOnOrBefore(ctx, rate.Date)
		return found, false, err
	}

	return rate, true, nil
}

func (d *ExchangeRateDAO) Upsert(ctx context.Context, rate ExchangeRate) (ExchangeRate, error) {
	result := conn(ctx, d.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "source", "updated_at"}),
	}).Create(&rate)
	if result.Error != nil {
		return ExchangeRate{}, result.Error
	}

	return rate, nil
}

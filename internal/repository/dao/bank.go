package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBankNotFound = errors.New("bank not found")

// Bank is a Venezuelan bank identified by its four digit clearing code.
type Bank struct {
	ID uint `gorm:"primaryKey"`

	Code string `gorm:"size:4;unique;not null"`
	Name string `gorm:"size:100;not null"`
}

// defaultBanks seeds the catalog on startup. Existing codes are left alone so
// renames made by operators survive restarts.
var defaultBanks = []Bank{
	{Code: "0102", Name: "Banco de Venezuela"},
	{Code: "0104", Name: "Venezolano de Crédito"},
	{Code: "0105", Name: "Mercantil"},
	{Code: "0108", Name: "Provincial"},
	{Code: "0114", Name: "Bancaribe"},
	{Code: "0115", Name: "Exterior"},
	{Code: "0128", Name: "Banco Caroní"},
	{Code: "0134", Name: "Banesco"},
	{Code: "0137", Name: "Sofitasa"},
	{Code: "0138", Name: "Banco Plaza"},
	{Code: "0151", Name: "BFC Banco Fondo Común"},
	{Code: "0156", Name: "100% Banco"},
	{Code: "0163", Name: "Banco del Tesoro"},
	{Code: "0166", Name: "Banco Agrícola de Venezuela"},
	{Code: "0169", Name: "R4"},
	{Code: "0171", Name: "Banco Activo"},
	{Code: "0172", Name: "Bancamiga"},
	{Code: "0174", Name: "Banplus"},
	{Code: "0175", Name: "Banco Bicentenario"},
	{Code: "0177", Name: "BANFANB"},
	{Code: "0191", Name: "Banco Nacional de Crédito"},
}

func seedBanks(db *gorm.DB) error {
	banks := make([]Bank, len(defaultBanks))
	copy(banks, defaultBanks)

	return db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&banks).Error
}

type BankDAO struct {
	db *gorm.DB
}

func NewBankDAO(db *gorm.DB) *BankDAO {
	return &BankDAO{
		db: db,
	}
}

func (d *BankDAO) List(ctx context.Context) ([]Bank, error) {
	var banks []Bank

	result := conn(ctx, d.db).Order("code").Find(&banks)
	if result.Error != nil {
		return nil, result.Error
	}

	return banks, nil
}

func (d *BankDAO) FindByCode(ctx context.Context, code string) (Bank, error) {
	var bank Bank

	result := conn(ctx, d.db).Where("code = ?", code).First(&bank)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Bank{}, ErrBankNotFound
		}

		return Bank{}, result.Error
	}

	return bank, nil
}

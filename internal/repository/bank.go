package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var ErrBankNotFound = dao.ErrBankNotFound

type BankDAO interface {
	List(ctx context.Context) ([]dao.Bank, error)
	FindByCode(ctx context.Context, code string) (dao.Bank, error)
}

type BankRepository struct {
	dao BankDAO
}

func NewBankRepository(dao BankDAO) *BankRepository {
	return &BankRepository{
		dao: dao,
	}
}

func (r *BankRepository) List(ctx context.Context) ([]domain.Bank, error) {
	found, err := r.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	banks := make([]domain.Bank, 0, len(found))
	for _, b := range found {
		banks = append(banks, domain.Bank{Code: b.Code, Name: b.Name})
	}

	return banks, nil
}

func (r *BankRepository) FindByCode(ctx context.Context, code string) (domain.Bank, error) {
	found, err := r.dao.FindByCode(ctx, code)
	if err != nil {
		return domain.Bank{}, fmt.Errorf("r.dao.FindByCode -> %w", err)
	}

	return domain.Bank{Code: found.Code, Name: found.Name}, nil
}

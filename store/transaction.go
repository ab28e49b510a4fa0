package store

import (
	"context"
	"fmt"
	"time"

	"budget/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStore 收支记录的只读查询，供报表聚合使用
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// FindInRange 查询 [from, to] 内的记录，按日期升序，附带类别
func (s *TransactionStore) FindInRange(ctx context.Context, userID uint, from, to time.Time) ([]models.Transaction, error) {
	var list []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询区间记录失败: %w", err)
	}
	return list, nil
}

// FindRecent 最近 limit 条记录，按日期倒序，附带类别
func (s *TransactionStore) FindRecent(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询最近记录失败: %w", err)
	}
	return list, nil
}

// SumByType 截至 until（含）某类型金额合计，无记录时为 0
func (s *TransactionStore) SumByType(ctx context.Context, userID uint, typ models.TransactionType, until time.Time) (decimal.Decimal, error) {
	return s.SumBetween(ctx, userID, typ, time.Time{}, until)
}

// SumBetween 区间内某类型金额合计，from/to 为零值表示不限
func (s *TransactionStore) SumBetween(ctx context.Context, userID uint, typ models.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, typ)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}

	var row struct {
		Total decimal.Decimal
	}
	if err := q.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("汇总金额失败: %w", err)
	}
	return row.Total.Round(2), nil
}

// CountByCategory 引用某类别的记录数
func (s *TransactionStore) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&n).Error
	return n, err
}

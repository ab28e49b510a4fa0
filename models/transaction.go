package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 收支类型
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid 是否为合法的收支类型
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseTransactionType 解析查询参数中的类型，非法值返回 false
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(s)
	return t, t.Valid()
}

// Transaction 收支记录
// 金额始终为正数，方向由 Type 决定。
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"userId" gorm:"index:idx_transactions_user_date,priority:1;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null" swaggertype:"number" example:"99.5"`
	Type        TransactionType `json:"type" gorm:"size:10;not null;index"`
	Description string          `json:"description" gorm:"size:255"`
	Date        time.Time       `json:"date" gorm:"index:idx_transactions_user_date,priority:2;not null"`
	CategoryID  uint            `json:"categoryId" gorm:"index;not null"`
	Category    Category        `json:"category" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// SignedAmount 收入为正，支出为负
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

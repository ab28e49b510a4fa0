package models

import (
	"time"
)

// DefaultCurrency 新用户默认币种（仅用于展示）
const DefaultCurrency = "PHP"

// MaxQuickCategories 快捷类别最多数量
const MaxQuickCategories = 4

// User 用户模型
type User struct {
	ID                     uint      `json:"id" gorm:"primaryKey"`
	Name                   string    `json:"name" gorm:"size:100;not null"`
	Email                  string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password               string    `json:"-" gorm:"size:255;not null"`
	Currency               string    `json:"currency" gorm:"size:10;default:PHP"`
	HideAmounts            bool      `json:"hideAmounts" gorm:"default:false"`
	QuickExpenseCategories []uint    `json:"quickExpenseCategories" gorm:"type:text;serializer:json"`
	QuickIncomeCategories  []uint    `json:"quickIncomeCategories" gorm:"type:text;serializer:json"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// Preferences 展示层读取的用户偏好
type Preferences struct {
	HideAmounts            bool   `json:"hideAmounts"`
	QuickExpenseCategories []uint `json:"quickExpenseCategories"`
	QuickIncomeCategories  []uint `json:"quickIncomeCategories"`
}

// Preferences 返回用户偏好，空列表输出为 []
func (u *User) Preferences() Preferences {
	p := Preferences{
		HideAmounts:            u.HideAmounts,
		QuickExpenseCategories: u.QuickExpenseCategories,
		QuickIncomeCategories:  u.QuickIncomeCategories,
	}
	if p.QuickExpenseCategories == nil {
		p.QuickExpenseCategories = []uint{}
	}
	if p.QuickIncomeCategories == nil {
		p.QuickIncomeCategories = []uint{}
	}
	return p
}

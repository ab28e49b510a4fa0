package models

import (
	"time"
)

// DefaultCategoryColor 自定义类别未指定颜色时使用
const DefaultCategoryColor = "#8B7E6A"

// Category 收支类别
// 系统预置类别 UserID 为空且 IsDefault=true，所有用户共享且不可修改；其余类别归属单个用户。
type Category struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    *uint           `json:"userId" gorm:"index"`
	Name      string          `json:"name" gorm:"size:50;not null"`
	Type      TransactionType `json:"type" gorm:"size:10;not null;index"`
	Icon      string          `json:"icon" gorm:"size:50;not null"`
	Color     string          `json:"color" gorm:"size:20;not null"`
	IsDefault bool            `json:"isDefault" gorm:"default:false;index"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// OwnedBy 是否为指定用户的自定义类别
func (c *Category) OwnedBy(userID uint) bool {
	return !c.IsDefault && c.UserID != nil && *c.UserID == userID
}

// VisibleTo 用户可使用的类别：预置类别或本人的自定义类别
func (c *Category) VisibleTo(userID uint) bool {
	return c.IsDefault || c.OwnedBy(userID)
}

// DefaultCategories 系统预置类别
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food & Dining", Type: TypeExpense, Icon: "UtensilsCrossed", Color: "#E07C4F"},
		{Name: "Transportation", Type: TypeExpense, Icon: "Car", Color: "#5B8DEF"},
		{Name: "Housing", Type: TypeExpense, Icon: "Home", Color: "#8B6FC0"},
		{Name: "Utilities", Type: TypeExpense, Icon: "Zap", Color: "#F5A623"},
		{Name: "Entertainment", Type: TypeExpense, Icon: "Film", Color: "#E05B8D"},
		{Name: "Shopping", Type: TypeExpense, Icon: "ShoppingBag", Color: "#4ECDC4"},
		{Name: "Healthcare", Type: TypeExpense, Icon: "Heart", Color: "#FF6B6B"},
		{Name: "Education", Type: TypeExpense, Icon: "GraduationCap", Color: "#45B7D1"},
		{Name: "Personal Care", Type: TypeExpense, Icon: "Sparkles", Color: "#C8702A"},
		{Name: "Other Expense", Type: TypeExpense, Icon: "MoreHorizontal", Color: "#8B7E6A"},

		{Name: "Salary", Type: TypeIncome, Icon: "Briefcase", Color: "#2D8B5A"},
		{Name: "Freelance", Type: TypeIncome, Icon: "Laptop", Color: "#45B7D1"},
		{Name: "Investments", Type: TypeIncome, Icon: "TrendingUp", Color: "#8B6FC0"},
		{Name: "Side Business", Type: TypeIncome, Icon: "Store", Color: "#E07C4F"},
		{Name: "Other Income", Type: TypeIncome, Icon: "MoreHorizontal", Color: "#5B8DEF"},
	}
}

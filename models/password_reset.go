package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PasswordResetTTL 重置令牌有效期
const PasswordResetTTL = 30 * time.Minute

// PasswordReset 密码重置令牌，库中只保存令牌的 SHA-256
type PasswordReset struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"userId" gorm:"index;not null"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TableName 设置表名
func (PasswordReset) TableName() string {
	return "password_resets"
}

// NewResetToken 生成随机令牌，返回明文（发给用户）与摘要（入库）
func NewResetToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken 令牌摘要
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsExpired 检查令牌是否过期
func (p *PasswordReset) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// IsValid 未使用且未过期
func (p *PasswordReset) IsValid(now time.Time) bool {
	return p.UsedAt == nil && !p.IsExpired(now)
}

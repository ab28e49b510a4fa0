package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"budget/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const defaultsKey = "defaults"

// CategoryStore 类别查询。系统预置类别启动时写入且不可修改，按实例缓存。
type CategoryStore struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{
		db:    db,
		cache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// Defaults 系统预置类别，按名称排序
func (s *CategoryStore) Defaults(ctx context.Context) ([]models.Category, error) {
	if v, ok := s.cache.Get(defaultsKey); ok {
		cached := v.([]models.Category)
		return append([]models.Category(nil), cached...), nil
	}
	var list []models.Category
	err := s.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("name ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(defaultsKey, append([]models.Category(nil), list...))
	return list, nil
}

// Visible 用户可见的类别（预置 + 本人），预置在前，组内按名称排序；typ 为空表示不限类型
func (s *CategoryStore) Visible(ctx context.Context, userID uint, typ models.TransactionType) ([]models.Category, error) {
	defaults, err := s.Defaults(ctx)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, false)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var own []models.Category
	if err := q.Order("name ASC").Find(&own).Error; err != nil {
		return nil, err
	}

	list := make([]models.Category, 0, len(defaults)+len(own))
	for _, c := range defaults {
		if typ == "" || c.Type == typ {
			list = append(list, c)
		}
	}
	return append(list, own...), nil
}

// FindVisible 按 ID 查找用户可用的类别，不可见时返回 gorm.ErrRecordNotFound
func (s *CategoryStore) FindVisible(ctx context.Context, userID, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND (is_default = ? OR user_id = ?)", id, true, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindOwned 按 ID 查找用户自己的非预置类别
func (s *CategoryStore) FindOwned(ctx context.Context, userID, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_default = ?", id, userID, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// NameTaken 同类型下名称是否已被预置类别或本人其他类别占用（不区分大小写）
func (s *CategoryStore) NameTaken(ctx context.Context, userID uint, name string, typ models.TransactionType, excludeID uint) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("LOWER(name) = ? AND type = ?", strings.ToLower(strings.TrimSpace(name)), typ).
		Where("is_default = ? OR user_id = ?", true, userID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

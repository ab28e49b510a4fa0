package api

import (
	"testing"
	"time"

	"budget/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryHandler_List(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	other := createUser(t, db, "other@example.com", "password123")
	customCategory(t, db, user.ID, "Coffee", models.TypeExpense)
	customCategory(t, db, other.ID, "Pets", models.TypeExpense)
	r := newTestRouter(db, user.ID, time.Now())

	var list []models.Category
	w := doJSON(r, "GET", "/categories", "")
	require.Equal(t, 200, w.Code)
	decodeResponse(t, w, &list)
	assert.Len(t, list, 16)
	assert.Equal(t, "Coffee", list[len(list)-1].Name)
	for _, c := range list {
		assert.NotEqual(t, "Pets", c.Name)
	}

	w = doJSON(r, "GET", "/categories?type=INCOME", "")
	require.Equal(t, 200, w.Code)
	decodeResponse(t, w, &list)
	assert.Len(t, list, 5)

	w = doJSON(r, "GET", "/categories?type=BOTH", "")
	assert.Equal(t, 400, w.Code)
}

func TestCategoryHandler_Create(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	r := newTestRouter(db, user.ID, time.Now())

	w := doJSON(r, "POST", "/categories", `{"name":" Coffee ","type":"EXPENSE","icon":"Coffee","color":"#6f4e37"}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	var cat models.Category
	decodeResponse(t, w, &cat)
	assert.Equal(t, "Coffee", cat.Name)
	assert.Equal(t, "#6F4E37", cat.Color)
	assert.False(t, cat.IsDefault)
	require.NotNil(t, cat.UserID)
	assert.Equal(t, user.ID, *cat.UserID)

	// 与本人类别重名（不区分大小写）
	w = doJSON(r, "POST", "/categories", `{"name":"coffee","type":"EXPENSE","icon":"Coffee","color":"#6F4E37"}`)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "类别名称已存在", decodeResponse(t, w, nil).Message)

	// 与预置类别重名
	w = doJSON(r, "POST", "/categories", `{"name":"salary","type":"INCOME","icon":"Coins","color":"#6F4E37"}`)
	assert.Equal(t, 400, w.Code)

	// 不同类型允许同名
	w = doJSON(r, "POST", "/categories", `{"name":"Coffee","type":"INCOME","icon":"Coffee","color":"#6F4E37"}`)
	assert.Equal(t, 201, w.Code)

	w = doJSON(r, "POST", "/categories", `{"name":"Tea","type":"EXPENSE","icon":"Cup","color":"green"}`)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "颜色格式错误，应为 #RRGGBB", decodeResponse(t, w, nil).Message)

	w = doJSON(r, "POST", "/categories", `{"name":"   ","type":"EXPENSE","icon":"Cup","color":"#000000"}`)
	assert.Equal(t, 400, w.Code)
}

func TestCategoryHandler_Update(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	other := createUser(t, db, "other@example.com", "password123")
	mine := customCategory(t, db, user.ID, "Coffee", models.TypeExpense)
	used := customCategory(t, db, user.ID, "Gym", models.TypeExpense)
	theirs := customCategory(t, db, other.ID, "Pets", models.TypeExpense)
	food := defaultCategory(t, db, "Food & Dining")
	addTransaction(t, db, user.ID, models.TypeExpense, "10", utc(2026, 2, 1), used)
	r := newTestRouter(db, user.ID, time.Now())

	w := doJSON(r, "PUT", "/categories/"+uintStr(mine.ID), `{"name":"Cafe","type":"EXPENSE","icon":"Coffee","color":"#abcdef"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	var saved models.Category
	require.NoError(t, db.First(&saved, mine.ID).Error)
	assert.Equal(t, "Cafe", saved.Name)
	assert.Equal(t, "#ABCDEF", saved.Color)

	// 类型创建后不能修改，无论是否已被记录使用
	w = doJSON(r, "PUT", "/categories/"+uintStr(mine.ID), `{"name":"Cafe","type":"INCOME","icon":"Coffee","color":"#abcdef"}`)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "类别类型创建后不能修改", decodeResponse(t, w, nil).Message)

	w = doJSON(r, "PUT", "/categories/"+uintStr(used.ID), `{"name":"Gym","type":"INCOME","icon":"Dumbbell","color":"#000000"}`)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "类别类型创建后不能修改", decodeResponse(t, w, nil).Message)

	require.NoError(t, db.First(&saved, mine.ID).Error)
	assert.Equal(t, models.TypeExpense, saved.Type)

	// 预置类别与他人类别不可修改
	w = doJSON(r, "PUT", "/categories/"+uintStr(food.ID), `{"name":"Food","type":"EXPENSE","icon":"X","color":"#000000"}`)
	assert.Equal(t, 404, w.Code)
	w = doJSON(r, "PUT", "/categories/"+uintStr(theirs.ID), `{"name":"Mine","type":"EXPENSE","icon":"X","color":"#000000"}`)
	assert.Equal(t, 404, w.Code)

	// 改名与预置类别冲突
	w = doJSON(r, "PUT", "/categories/"+uintStr(used.ID), `{"name":"housing","type":"EXPENSE","icon":"X","color":"#000000"}`)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "类别名称已存在", decodeResponse(t, w, nil).Message)
}

func TestCategoryHandler_Delete(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	unused := customCategory(t, db, user.ID, "Coffee", models.TypeExpense)
	used := customCategory(t, db, user.ID, "Gym", models.TypeExpense)
	food := defaultCategory(t, db, "Food & Dining")
	addTransaction(t, db, user.ID, models.TypeExpense, "10", utc(2026, 2, 1), used)
	addTransaction(t, db, user.ID, models.TypeExpense, "15", utc(2026, 2, 2), used)
	r := newTestRouter(db, user.ID, time.Now())

	w := doJSON(r, "DELETE", "/categories/"+uintStr(used.ID), "")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "仍有 2 条记录使用该类别，无法删除", decodeResponse(t, w, nil).Message)

	w = doJSON(r, "DELETE", "/categories/"+uintStr(food.ID), "")
	assert.Equal(t, 404, w.Code)

	w = doJSON(r, "DELETE", "/categories/"+uintStr(unused.ID), "")
	require.Equal(t, 200, w.Code)

	var count int64
	db.Model(&models.Category{}).Where("id = ?", unused.ID).Count(&count)
	assert.Zero(t, count)
}

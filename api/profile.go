package api

import (
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ProfileHandler 个人资料与偏好
type ProfileHandler struct {
	categories *store.CategoryStore
}

func NewProfileHandler(categories *store.CategoryStore) *ProfileHandler {
	return &ProfileHandler{categories: categories}
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"Juan"`
	Email    string `json:"email" binding:"required,max=100" example:"juan@example.com"`
	Currency string `json:"currency" binding:"required,max=10" example:"PHP"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required" example:"oldpassword123"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72" example:"newpassword123"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" example:"newpassword123"`
}

// UpdatePreferencesRequest 更新偏好请求，未传的字段保持不变
type UpdatePreferencesRequest struct {
	HideAmounts            *bool   `json:"hideAmounts"`
	QuickExpenseCategories *[]uint `json:"quickExpenseCategories"`
	QuickIncomeCategories  *[]uint `json:"quickIncomeCategories"`
}

func loadCurrentUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := database.DB.First(&user, middleware.GetCurrentUserID(c)).Error; err != nil {
		if store.IsNotFound(err) {
			NotFound(c, "用户不存在")
		} else {
			serverError(c, err, "查询用户失败")
		}
		return nil, false
	}
	return &user, true
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}
	Success(c, user)
}

// UpdateProfile 更新姓名、邮箱、币种
// @Summary 更新个人资料
// @Description 币种仅作为展示标签，不做汇率换算
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "资料"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "邮箱已被占用"
// @Router /api/v1/profile [patch]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}

	email, ok := bindEmail(c, req.Email, "邮箱格式错误")
	if !ok {
		return
	}
	if email != user.Email {
		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, user.ID).
			Count(&count).Error; err != nil {
			serverError(c, err, "更新失败")
			return
		}
		if count > 0 {
			Conflict(c, "该邮箱已被其他账号使用")
			return
		}
	}

	updates := map[string]interface{}{
		"name":     strings.TrimSpace(req.Name),
		"email":    email,
		"currency": strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		serverError(c, err, "更新失败")
		return
	}
	user.Name = updates["name"].(string)
	user.Email = email
	user.Currency = updates["currency"].(string)

	SuccessWithMessage(c, "更新成功", user)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "请求参数错误或原密码错误"
// @Router /api/v1/profile/password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		BadRequest(c, "两次输入的密码不一致")
		return
	}

	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		BadRequest(c, "原密码错误")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if err := database.DB.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		serverError(c, err, "更新密码失败")
		return
	}

	SuccessWithMessage(c, "密码修改成功", nil)
}

// GetPreferences 获取展示偏好
// @Summary 获取展示偏好
// @Description 金额隐藏开关与快捷类别
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.Preferences} "获取成功"
// @Router /api/v1/preferences [get]
func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}
	Success(c, user.Preferences())
}

// UpdatePreferences 更新展示偏好
// @Summary 更新展示偏好
// @Description 每种快捷类别最多 4 个，且必须是当前用户可用的同类型类别
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdatePreferencesRequest true "偏好"
// @Success 200 {object} Response{data=models.Preferences} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/preferences [patch]
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}

	if req.HideAmounts != nil {
		user.HideAmounts = *req.HideAmounts
	}
	if req.QuickExpenseCategories != nil {
		ids, ok := h.checkQuickCategories(c, user.ID, *req.QuickExpenseCategories, models.TypeExpense)
		if !ok {
			return
		}
		user.QuickExpenseCategories = ids
	}
	if req.QuickIncomeCategories != nil {
		ids, ok := h.checkQuickCategories(c, user.ID, *req.QuickIncomeCategories, models.TypeIncome)
		if !ok {
			return
		}
		user.QuickIncomeCategories = ids
	}

	err := database.DB.Model(user).
		Select("hide_amounts", "quick_expense_categories", "quick_income_categories").
		Updates(user).Error
	if err != nil {
		serverError(c, err, "更新失败")
		return
	}

	SuccessWithMessage(c, "更新成功", user.Preferences())
}

// checkQuickCategories 去重并校验快捷类别
func (h *ProfileHandler) checkQuickCategories(c *gin.Context, userID uint, ids []uint, typ models.TransactionType) ([]uint, bool) {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) > models.MaxQuickCategories {
		BadRequest(c, "快捷类别最多 4 个")
		return nil, false
	}
	for _, id := range out {
		cat, err := h.categories.FindVisible(c.Request.Context(), userID, id)
		if err != nil {
			if store.IsNotFound(err) {
				BadRequest(c, "快捷类别不存在")
			} else {
				serverError(c, err, "更新失败")
			}
			return nil, false
		}
		if cat.Type != typ {
			BadRequest(c, "快捷类别类型不匹配")
			return nil, false
		}
	}
	return out, true
}

package api

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"budget/config"
	"budget/database"
	"budget/logger"
	"budget/models"
	"budget/service"
	"budget/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 无论邮箱是否注册都返回同一提示
const resetRequestedMessage = "如果该邮箱已注册，您将收到密码重置邮件"

// ResetMailer 发送重置邮件
type ResetMailer interface {
	Enabled() bool
	SendPasswordResetEmail(toEmail, name, resetLink string) error
}

// PasswordResetHandler 密码重置处理器
type PasswordResetHandler struct {
	cfg    *config.Config
	mailer ResetMailer
	now    func() time.Time
}

// NewPasswordResetHandler 创建密码重置处理器
func NewPasswordResetHandler(cfg *config.Config, mailer ResetMailer) *PasswordResetHandler {
	return &PasswordResetHandler{cfg: cfg, mailer: mailer, now: time.Now}
}

// ForgotPasswordRequest 申请重置密码
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,max=100" example:"juan@example.com"`
}

// ResetPasswordRequest 重置密码
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72" example:"newpassword123"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" example:"newpassword123"`
}

func (h *PasswordResetHandler) resetLink(token string) string {
	return strings.TrimRight(h.cfg.Server.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// findValidReset 按明文令牌查找有效的重置记录，失败时已写入 400
func (h *PasswordResetHandler) findValidReset(c *gin.Context, token string) (*models.PasswordReset, bool) {
	var reset models.PasswordReset
	err := database.DB.Where("token_hash = ?", models.HashResetToken(token)).First(&reset).Error
	if err != nil {
		if store.IsNotFound(err) {
			BadRequest(c, "无效的令牌")
		} else {
			serverError(c, err, "查询令牌失败")
		}
		return nil, false
	}

	now := h.now()
	switch {
	case reset.UsedAt != nil:
		BadRequest(c, "该令牌已被使用")
		return nil, false
	case reset.IsExpired(now):
		BadRequest(c, "令牌已过期，请重新申请")
		return nil, false
	}
	return &reset, true
}

// ForgotPassword 申请密码重置邮件
// @Summary 申请密码重置
// @Description 向注册邮箱发送重置链接，链接 30 分钟内有效。为避免探测账号，邮箱未注册时同样返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "邮箱"
// @Success 200 {object} Response "已受理"
// @Failure 400 {object} Response "请求参数错误或邮件服务未启用"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /api/v1/auth/password/forgot [post]
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请输入有效的邮箱地址")
		return
	}
	email, ok := bindEmail(c, req.Email, "请输入有效的邮箱地址")
	if !ok {
		return
	}
	if !h.mailer.Enabled() {
		BadRequest(c, service.ErrEmailDisabled.Error())
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if !store.IsNotFound(err) {
			serverError(c, err, "查询用户失败")
			return
		}
		SuccessWithMessage(c, resetRequestedMessage, nil)
		return
	}

	now := h.now()

	// 已有未使用的有效令牌时不重复发送
	var pending int64
	err := database.DB.Model(&models.PasswordReset{}).
		Where("user_id = ? AND used_at IS NULL AND expires_at > ?", user.ID, now).
		Count(&pending).Error
	if err != nil {
		serverError(c, err, "查询令牌失败")
		return
	}
	if pending > 0 {
		SuccessWithMessage(c, resetRequestedMessage, nil)
		return
	}

	token, hash, err := models.NewResetToken()
	if err != nil {
		InternalError(c, "生成令牌失败")
		return
	}
	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(models.PasswordResetTTL),
	}
	if err := database.DB.Create(&reset).Error; err != nil {
		serverError(c, err, "创建重置令牌失败")
		return
	}

	if err := h.mailer.SendPasswordResetEmail(user.Email, user.Name, h.resetLink(token)); err != nil {
		// 发送失败时删除令牌，允许立即重试
		database.DB.Delete(&reset)
		serverError(c, err, "邮件发送失败")
		return
	}

	logger.FromContext(c.Request.Context()).Info("已发送密码重置邮件", "user_id", user.ID)
	SuccessWithMessage(c, resetRequestedMessage, nil)
}

// VerifyResetToken 校验重置令牌
// @Summary 校验重置令牌
// @Tags 认证
// @Produce json
// @Param token query string true "重置令牌"
// @Success 200 {object} Response "令牌有效"
// @Failure 400 {object} Response "令牌无效、已使用或已过期"
// @Router /api/v1/auth/password/verify [get]
func (h *PasswordResetHandler) VerifyResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		BadRequest(c, "缺少令牌")
		return
	}

	reset, ok := h.findValidReset(c, token)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, reset.UserID).Error; err != nil {
		if store.IsNotFound(err) {
			BadRequest(c, "无效的令牌")
		} else {
			serverError(c, err, "查询用户失败")
		}
		return
	}

	Success(c, gin.H{
		"email":     user.Email,
		"expiresAt": reset.ExpiresAt,
	})
}

// ResetPassword 使用令牌设置新密码
// @Summary 重置密码
// @Description 成功后该用户所有未使用的重置令牌一并失效
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "请求参数错误或令牌无效"
// @Router /api/v1/auth/password/reset [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		BadRequest(c, "两次输入的密码不一致")
		return
	}

	reset, ok := h.findValidReset(c, req.Token)
	if !ok {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	now := h.now()
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", string(hashedPassword))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used_at IS NULL", reset.UserID).
			Update("used_at", now).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, "无效的令牌")
			return
		}
		serverError(c, err, "重置密码失败")
		return
	}

	SuccessWithMessage(c, "密码重置成功，请使用新密码登录", nil)
}

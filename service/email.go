package service

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"budget/config"
	"budget/models"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 未启用邮件服务
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 BUDGET_EMAIL_ENABLED=true")

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否已启用
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// SendMonthlyReport 发送月度收支报告
func (s *EmailService) SendMonthlyReport(toEmail, name, currency string, stats *DashboardStats) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	subject := fmt.Sprintf("【Budget】%s 月度报告", stats.Month)
	body := s.generateMonthlyReportBody(name, currency, stats)

	return s.sendEmail(toEmail, subject, body)
}

// generateMonthlyReportBody 生成月度报告内容，用户输入的文本均做 HTML 转义
func (s *EmailService) generateMonthlyReportBody(name, currency string, stats *DashboardStats) string {
	var rows strings.Builder
	if len(stats.CategoryBreakdown) == 0 {
		rows.WriteString(`<tr><td colspan="3" class="muted">本月无支出</td></tr>`)
	}
	for _, c := range stats.CategoryBreakdown {
		fmt.Fprintf(&rows, `<tr><td><span class="dot" style="background:%s"></span>%s</td><td class="num">%s %s</td><td class="num">%d%%</td></tr>`,
			html.EscapeString(c.Color),
			html.EscapeString(c.Name),
			html.EscapeString(currency),
			c.Amount.StringFixed(2),
			c.Percentage,
		)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2D8B5A, #1f6b43); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 16px; }
        .cards td { padding: 12px; border-radius: 8px; background: #f8f9fa; }
        .label { color: #6c757d; font-size: 12px; }
        .value { font-size: 20px; font-weight: 600; }
        table.breakdown { width: 100%%; border-collapse: collapse; margin-top: 20px; }
        table.breakdown td { padding: 8px 0; border-bottom: 1px solid #eee; }
        .num { text-align: right; }
        .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%%; margin-right: 8px; }
        .muted { color: #6c757d; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 %s 月度报告</h1>
        </div>
        <div class="content">
            <p>%s，您好！以下是您本月的收支概况：</p>
            <table class="cards" width="100%%" cellspacing="8">
                <tr>
                    <td><div class="label">收入</div><div class="value">%s %s</div></td>
                    <td><div class="label">支出</div><div class="value">%s %s</div></td>
                </tr>
                <tr>
                    <td><div class="label">结余</div><div class="value">%s %s</div></td>
                    <td><div class="label">累计余额</div><div class="value">%s %s</div></td>
                </tr>
            </table>
            <p class="muted">共 %d 笔记录</p>
            <table class="breakdown">%s</table>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`,
		html.EscapeString(stats.Month),
		html.EscapeString(name),
		html.EscapeString(currency), stats.TotalIncome.StringFixed(2),
		html.EscapeString(currency), stats.TotalExpenses.StringFixed(2),
		html.EscapeString(currency), stats.Balance.StringFixed(2),
		html.EscapeString(currency), stats.RunningBalance.StringFixed(2),
		stats.TransactionCount,
		rows.String(),
	)
}

// SendPasswordResetEmail 发送密码重置邮件
func (s *EmailService) SendPasswordResetEmail(toEmail, name, resetLink string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	subject := "【Budget】密码重置"
	body := s.generateResetEmailBody(name, resetLink)

	return s.sendEmail(toEmail, subject, body)
}

func (s *EmailService) generateResetEmailBody(name, resetLink string) string {
	link := html.EscapeString(resetLink)
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #2D8B5A, #1f6b43); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .btn { display: inline-block; background: #2D8B5A; color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; font-weight: 600; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
        .link { word-break: break-all; color: #2D8B5A; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 Budget</h1>
        </div>
        <div class="content">
            <p><strong>%s</strong>，您好！</p>
            <p>我们收到了您的密码重置请求，请点击下方按钮设置新密码：</p>
            <p style="text-align: center;"><a href="%s" class="btn">重置密码</a></p>
            <div class="warning">
                <p>⚠️ 链接 <strong>%d 分钟</strong>内有效，且只能使用一次。如果不是您本人操作，请忽略此邮件。</p>
            </div>
            <p>如果按钮无法点击，请复制以下链接到浏览器打开：</p>
            <p class="link">%s</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(name), link, int(models.PasswordResetTTL.Minutes()), link)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

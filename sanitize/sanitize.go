package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text 去除全部 HTML 标签与不可打印字符并裁剪首尾空白，结果为纯文本
func Text(s string) string {
	cleaned := strictPolicy.Sanitize(s)
	// StrictPolicy 会把 & < > 等转成实体，入库保存原文
	cleaned = html.UnescapeString(cleaned)
	return strings.TrimSpace(StripUnprintable(cleaned))
}

// ForSpreadsheet 以公式字符开头的单元格前加单引号，防止 CSV/Excel 公式注入
func ForSpreadsheet(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// StripUnprintable 去除不可打印字符，保留常见空白
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

package models

import "github.com/shopspring/decimal"

func init() {
	// 金额以 JSON 数字输出，而不是字符串
	decimal.MarshalJSONWithoutQuotes = true
}

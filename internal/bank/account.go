// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 結構與金額解析，不含任何終端或儲存細節。

package bank

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"termbank/internal/credential"
)

// DefaultOpeningBalance 為新註冊帳戶的初始餘額。
var DefaultOpeningBalance = decimal.NewFromInt(10)

const (
	// MaxAmountScale 為金額允許的最多小數位數。
	MaxAmountScale = 8
	// maxAmountExponent 限制科學記號的指數，避免 decimal 運算時放大成巨大整數。
	maxAmountExponent = 18
)

// MaxBalance 為單一金額與帳戶餘額的上限。
// 快照以 float64 保存餘額，超過此值即無法準確還原。
var MaxBalance = decimal.New(1, 15)

// Account 代表一個銀行帳戶。
// ID 僅存在於記憶體，作為 session 與轉帳時的穩定識別。
type Account struct {
	ID         uuid.UUID
	Username   string
	Balance    decimal.Decimal
	Credential credential.Credential
}

// ParseAmount 解析操作者輸入的金額。
// 非數字、0、負數、小數超過 MaxAmountScale 位或大於 MaxBalance 皆回傳
// decimal.Zero 與 ErrInvalidAmount；呼叫端可直接把零值交給 Ledger，
// 由 Ledger 依檢核順序回報同一個錯誤。
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !validAmount(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// InRange 回報 d 的小數位數與大小是否都在帳本可處理的範圍內，不檢查正負。
// 先檢查指數再比較大小，比較本身才不會觸發大幅 rescale。
func InRange(d decimal.Decimal) bool {
	if exp := d.Exponent(); exp < -MaxAmountScale || exp > maxAmountExponent {
		return false
	}
	return !d.GreaterThan(MaxBalance)
}

func validAmount(d decimal.Decimal) bool {
	return InRange(d) && d.IsPositive()
}

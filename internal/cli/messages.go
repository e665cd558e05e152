// internal/cli/messages.go
//
// 統一終端輸出：所有錯誤都經由 message 轉成給操作者看的固定句子，
// 登入失敗的訊息不區分帳號不存在或密碼錯誤。
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"termbank/internal/bank"
	"termbank/internal/credential"
	"termbank/internal/storage"
)

// message 將錯誤對應為操作者訊息；未知錯誤原樣輸出。
func message(err error) string {
	switch {
	case errors.Is(err, bank.ErrUsernameTaken):
		return "Username already exists! Please choose another."
	case errors.Is(err, bank.ErrInvalidUsername):
		return "Username and password must not be empty!"
	case errors.Is(err, bank.ErrInvalidCredentials):
		return "Invalid username or password!"
	case errors.Is(err, bank.ErrNotAuthenticated):
		return "No user logged in!"
	case errors.Is(err, bank.ErrInvalidAmount):
		return "Invalid amount! Please enter a positive value."
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "Insufficient balance!"
	case errors.Is(err, bank.ErrSelfTransfer):
		return "You cannot transfer to yourself!"
	case errors.Is(err, bank.ErrRecipientNotFound):
		return "Receiver not found!"
	case errors.Is(err, credential.ErrRandomnessUnavailable):
		return "Could not generate a secure password salt, please try again later."
	case errors.Is(err, storage.ErrStorageUnavailable):
		return "Warning: the change was applied but could not be saved to disk."
	default:
		return err.Error()
	}
}

// writeErr 輸出錯誤訊息。
func writeErr(w io.Writer, err error) {
	fmt.Fprintln(w, message(err))
}

// money 以兩位小數輸出金額。
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// internal/bank/errors.go
//
// 集中定義領域錯誤（domain errors）。
// 皆為可恢復的業務規則違反，由 cli 層轉成給操作者的訊息，不會中止程序。

package bank

import "errors"

var (
	// ErrUsernameTaken 代表使用者名稱已存在（大小寫敏感的完全比對）。
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidUsername 代表註冊時名稱或密碼為空。
	ErrInvalidUsername = errors.New("username and password must not be empty")

	// ErrInvalidCredentials 同時涵蓋「帳號不存在」與「密碼錯誤」，
	// 兩者刻意無法區分。
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotAuthenticated 代表目前沒有登入中的帳戶。
	ErrNotAuthenticated = errors.New("no user logged in")

	// ErrInvalidAmount 代表金額 <= 0 或無法解析。
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrInsufficientFunds 代表餘額不足以提款或轉帳。
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrSelfTransfer 代表收款人就是登入中的帳戶本身。
	ErrSelfTransfer = errors.New("cannot transfer to yourself")

	// ErrRecipientNotFound 代表收款人帳戶不存在。
	ErrRecipientNotFound = errors.New("receiver not found")
)

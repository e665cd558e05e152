// internal/bank/ledger.go

// Package bank 定義核心商業邏輯：註冊、登入/登出、存提款與轉帳。
// Ledger 擁有帳戶集合與唯一的 session；所有變更成功後整份快照寫入 Store。
// 採用單一互斥鎖 (sync.Mutex) 序列化所有操作，轉帳的扣款與入帳在同一臨界區完成。
package bank

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"termbank/internal/credential"
	"termbank/internal/storage"
)

// dummy 用於帳號不存在時仍執行一次雜湊比對，讓兩種失敗路徑成本一致。
var dummy = credential.Credential{
	Hash: credential.Hash("", "00000000000000000000000000000000"),
	Salt: "00000000000000000000000000000000",
}

// Ledger 為聚合根 (Aggregate Root)：
// - accts：依註冊順序排列的帳戶，不會刪除，因此索引永久有效。
// - index：帳戶 ID → accts 索引。
// - session：登入中帳戶的 ID，uuid.Nil 表示未登入。
type Ledger struct {
	mu      sync.Mutex
	accts   []*Account
	index   map[uuid.UUID]int
	session uuid.UUID

	store   storage.Store
	hasher  *credential.Hasher
	opening decimal.Decimal
}

// Option 調整 Ledger 的依賴。
type Option func(*Ledger)

// WithHasher 指定產生鹽值的 Hasher（測試可注入失敗的亂數來源）。
func WithHasher(h *credential.Hasher) Option {
	return func(l *Ledger) { l.hasher = h }
}

// WithOpeningBalance 指定新帳戶的初始餘額。
func WithOpeningBalance(d decimal.Decimal) Option {
	return func(l *Ledger) { l.opening = d }
}

// NewLedger 建立空白帳本。store 可為 nil，此時不做持久化。
func NewLedger(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		index:   make(map[uuid.UUID]int),
		store:   store,
		hasher:  credential.Default,
		opening: DefaultOpeningBalance,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// findLocked 線性搜尋，第一個完全相符者勝出；找不到回傳 -1。
func (l *Ledger) findLocked(username string) int {
	for i, a := range l.accts {
		if a.Username == username {
			return i
		}
	}
	return -1
}

// currentLocked 將 session 解析為索引。
func (l *Ledger) currentLocked() (int, bool) {
	if l.session == uuid.Nil {
		return 0, false
	}
	i, ok := l.index[l.session]
	return i, ok
}

// persistLocked 將整份帳戶集合寫入 Store。
// 失敗時記憶體狀態保持不變（已套用的變更不回滾），錯誤原樣回傳。
func (l *Ledger) persistLocked() error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Save(l.snapshotLocked()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (l *Ledger) registerLocked(username, secret string) (*Account, error) {
	if l.findLocked(username) >= 0 {
		return nil, ErrUsernameTaken
	}
	cred, err := l.hasher.Set(secret)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	a := &Account{ID: uuid.New(), Username: username, Balance: l.opening, Credential: cred}
	l.index[a.ID] = len(l.accts)
	l.accts = append(l.accts, a)
	return a, nil
}

// Register 建立新帳戶並持久化。
// 名稱已存在回傳 ErrUsernameTaken；亂數來源失敗回傳 credential.ErrRandomnessUnavailable。
// 若僅持久化失敗，帳戶已建立，回傳值有效且 error 包裝 storage.ErrStorageUnavailable。
func (l *Ledger) Register(username, secret string) (Account, error) {
	if username == "" || secret == "" {
		return Account{}, ErrInvalidUsername
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.registerLocked(username, secret)
	if err != nil {
		return Account{}, err
	}
	return *a, l.persistLocked()
}

// EnsureAdmin 在帳戶集合為空時建立預設管理帳戶並立即持久化。
// 回傳是否有建立。
func (l *Ledger) EnsureAdmin(username, secret string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.accts) > 0 {
		return false, nil
	}
	if _, err := l.registerLocked(username, secret); err != nil {
		return false, err
	}
	return true, l.persistLocked()
}

// Login 驗證帳密並設定 session，回傳餘額。
// 嘗試前先清除 session；帳號不存在與密碼錯誤一律回傳 ErrInvalidCredentials。
func (l *Ledger) Login(username, secret string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.session = uuid.Nil

	i := l.findLocked(username)
	if i < 0 {
		credential.Verify(secret, dummy)
		return decimal.Zero, ErrInvalidCredentials
	}
	a := l.accts[i]
	if !credential.Verify(secret, a.Credential) {
		return decimal.Zero, ErrInvalidCredentials
	}
	l.session = a.ID
	return a.Balance, nil
}

// Logout 清除 session；未登入時呼叫亦無副作用。
func (l *Ledger) Logout() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.session = uuid.Nil
}

// Current 回傳登入中帳戶的值拷貝。
func (l *Ledger) Current() (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.currentLocked()
	if !ok {
		return Account{}, false
	}
	return *l.accts[i], true
}

// Accounts 依註冊順序回傳所有帳戶的值拷貝。
func (l *Ledger) Accounts() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Account, len(l.accts))
	for i, a := range l.accts {
		out[i] = *a
	}
	return out
}

// Len 回傳帳戶數量。
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accts)
}

// Withdraw 提款：需登入、金額有效、餘額足夠。
func (l *Ledger) Withdraw(amount decimal.Decimal) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.currentLocked()
	if !ok {
		return Account{}, ErrNotAuthenticated
	}
	if !validAmount(amount) {
		return Account{}, ErrInvalidAmount
	}
	a := l.accts[i]
	if a.Balance.LessThan(amount) {
		return Account{}, ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return *a, l.persistLocked()
}

// Deposit 存款：需登入、金額有效，且存入後餘額不得超過 MaxBalance。
func (l *Ledger) Deposit(amount decimal.Decimal) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.currentLocked()
	if !ok {
		return Account{}, ErrNotAuthenticated
	}
	if !validAmount(amount) {
		return Account{}, ErrInvalidAmount
	}
	a := l.accts[i]
	next := a.Balance.Add(amount)
	if next.GreaterThan(MaxBalance) {
		return Account{}, ErrInvalidAmount
	}
	a.Balance = next
	return *a, l.persistLocked()
}

// Transfer 由登入中帳戶轉帳給 recipient，回傳轉出方的最新狀態。
// 檢核順序固定：登入 → 自己 → 金額 → 收款人存在 → 餘額；
// 同時違反多項時回報第一項。扣款與入帳以索引定址並一起套用，之後只寫入一次快照。
func (l *Ledger) Transfer(amount decimal.Decimal, recipient string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	si, ok := l.currentLocked()
	if !ok {
		return Account{}, ErrNotAuthenticated
	}
	if recipient == l.accts[si].Username {
		return Account{}, ErrSelfTransfer
	}
	if !validAmount(amount) {
		return Account{}, ErrInvalidAmount
	}
	ri := l.findLocked(recipient)
	if ri < 0 {
		return Account{}, ErrRecipientNotFound
	}
	if l.accts[si].Balance.LessThan(amount) {
		return Account{}, ErrInsufficientFunds
	}
	// 入帳後超過上限視為金額無效，雙方餘額皆不變
	if l.accts[ri].Balance.Add(amount).GreaterThan(MaxBalance) {
		return Account{}, ErrInvalidAmount
	}

	l.accts[si].Balance = l.accts[si].Balance.Sub(amount)
	l.accts[ri].Balance = l.accts[ri].Balance.Add(amount)
	return *l.accts[si], l.persistLocked()
}

// ChangePassword 更換登入中帳戶的密碼，並產生新的鹽值。
// current 錯誤回傳 ErrInvalidCredentials；產生鹽值失敗時舊密碼維持有效。
func (l *Ledger) ChangePassword(current, next string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.currentLocked()
	if !ok {
		return ErrNotAuthenticated
	}
	a := l.accts[i]
	if !credential.Verify(current, a.Credential) {
		return ErrInvalidCredentials
	}
	if next == "" {
		return ErrInvalidUsername
	}
	cred, err := l.hasher.Set(next)
	if err != nil {
		return fmt.Errorf("change password for %q: %w", a.Username, err)
	}
	a.Credential = cred
	return l.persistLocked()
}

// Snapshot 匯出帳戶集合為可持久化的 storage.Snapshot。
func (l *Ledger) Snapshot() storage.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() storage.Snapshot {
	s := storage.Snapshot{Accounts: make([]storage.PersistAccount, 0, len(l.accts))}
	for _, a := range l.accts {
		s.Accounts = append(s.Accounts, storage.PersistAccount{
			Username:     a.Username,
			PasswordHash: a.Credential.Hash,
			Salt:         a.Credential.Salt,
			Balance:      a.Balance.InexactFloat64(),
		})
	}
	return s
}

// Restore 以快照取代帳戶集合並清除 session。
// 名稱為空、名稱重複或餘額為負或超過 MaxBalance 的記錄視為 storage.ErrCorruptState，此時帳本維持原狀。
func (l *Ledger) Restore(s storage.Snapshot) error {
	accts := make([]*Account, 0, len(s.Accounts))
	index := make(map[uuid.UUID]int, len(s.Accounts))
	seen := make(map[string]bool, len(s.Accounts))
	for i, pa := range s.Accounts {
		if pa.Username == "" {
			return fmt.Errorf("%w: record %d has no username", storage.ErrCorruptState, i)
		}
		if seen[pa.Username] {
			return fmt.Errorf("%w: duplicate username %q", storage.ErrCorruptState, pa.Username)
		}
		bal := decimal.NewFromFloat(pa.Balance)
		if bal.IsNegative() {
			return fmt.Errorf("%w: negative balance for %q", storage.ErrCorruptState, pa.Username)
		}
		if bal.GreaterThan(MaxBalance) {
			return fmt.Errorf("%w: balance out of range for %q", storage.ErrCorruptState, pa.Username)
		}
		seen[pa.Username] = true
		a := &Account{
			ID:         uuid.New(),
			Username:   pa.Username,
			Balance:    bal,
			Credential: credential.Credential{Hash: pa.PasswordHash, Salt: pa.Salt},
		}
		index[a.ID] = len(accts)
		accts = append(accts, a)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accts = accts
	l.index = index
	l.session = uuid.Nil
	return nil
}

// internal/storage/model.go
//
// 定義持久化層的資料模型。
// 檔案格式為帳戶物件的 JSON 陣列（username / password_hash / salt / balance），
// 與既有的 profiles.json 相容，因此不含版本欄位。
package storage

// PersistAccount 為帳戶在檔案中的序列化格式。
type PersistAccount struct {
	Username     string  `json:"username"`
	PasswordHash string  `json:"password_hash"`
	Salt         string  `json:"salt"`
	Balance      float64 `json:"balance"`
}

// Snapshot 為整個帳戶集合的快照，順序即為註冊順序。
// Fresh 表示來源檔案不存在或為空（不寫入檔案）。
type Snapshot struct {
	Accounts []PersistAccount
	Fresh    bool
}

// Store 為 bank 層寫入快照的出口。
type Store interface {
	Save(Snapshot) error
}

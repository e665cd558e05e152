// internal/storage/jsonstore.go
//
// 提供 JSON 快照的載入與原子寫入。
// 寫入採「同目錄暫存檔 → fsync → rename」，中途失敗不會破壞原檔。
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrStorageUnavailable 代表快照無法寫入（目錄不存在、權限不足、磁碟錯誤）。
	// 記憶體中的狀態仍正確，只是尚未持久化。
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptState 代表快照檔案內容無法解析。
	ErrCorruptState = errors.New("corrupt state")
)

// JSONStore 以單一 JSON 檔案保存帳戶集合。
type JSONStore struct {
	Path string
}

// Load 讀取 s.Path 的快照。
func (s *JSONStore) Load() (Snapshot, error) {
	return LoadSnapshot(s.Path)
}

// Save 原子寫入 s.Path。
func (s *JSONStore) Save(snap Snapshot) error {
	return SaveSnapshot(s.Path, snap)
}

// LoadSnapshot 讀取指定路徑的快照。
// 檔案不存在或僅含空白時回傳 Fresh 的空快照；格式錯誤回傳 ErrCorruptState。
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{Fresh: true}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{Fresh: true}, nil
	}

	var accts []PersistAccount
	if err := json.Unmarshal(data, &accts); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	return Snapshot{Accounts: accts}, nil
}

// SaveSnapshot 將快照序列化為縮排 JSON 陣列並原子取代 path。
// 任何 I/O 失敗皆包裝為 ErrStorageUnavailable，暫存檔會被清除。
func SaveSnapshot(path string, snap Snapshot) (err error) {
	accts := snap.Accounts
	if accts == nil {
		accts = []PersistAccount{}
	}
	data, err := json.MarshalIndent(accts, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorageUnavailable, err)
	}
	data = append(data, '\n')

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStorageUnavailable, tmp, err)
	}
	// 檔案含密碼雜湊，沿用 CreateTemp 的 0600
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// internal/storage/jsonstore_test.go
//
// 驗證快照的寫入/讀回、空檔處理、格式錯誤與寫入失敗的錯誤分類。
// 使用 t.TempDir() 確保測試不汙染本機環境。
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	orig := Snapshot{Accounts: []PersistAccount{
		{Username: "admin", PasswordHash: "h1", Salt: "s1", Balance: 10},
		{Username: "alice", PasswordHash: "h2", Salt: "s2", Balance: 40.25},
	}}

	store := &JSONStore{Path: path}
	if err := store.Save(orig); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if loaded.Fresh {
		t.Fatal("loaded snapshot should not be fresh")
	}
	if len(loaded.Accounts) != len(orig.Accounts) {
		t.Fatalf("len=%d want=%d", len(loaded.Accounts), len(orig.Accounts))
	}
	for i := range orig.Accounts {
		if loaded.Accounts[i] != orig.Accounts[i] {
			t.Fatalf("account %d: got=%+v want=%+v", i, loaded.Accounts[i], orig.Accounts[i])
		}
	}

	// 暫存檔不應殘留
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("dir entries=%d want=1", len(entries))
	}
}

// TestSnapshotFileFormat 確認檔案為帶固定欄位名稱的 JSON 陣列，且不含版本欄位。
func TestSnapshotFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	snap := Snapshot{Accounts: []PersistAccount{{Username: "bob", PasswordHash: "h", Salt: "s", Balance: 30}}}
	if err := SaveSnapshot(path, snap); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("not a JSON array: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("records=%d want=1", len(raw))
	}
	for _, k := range []string{"username", "password_hash", "salt", "balance"} {
		if _, ok := raw[0][k]; !ok {
			t.Fatalf("missing field %q in %s", k, data)
		}
	}
	if len(raw[0]) != 4 {
		t.Fatalf("unexpected fields: %v", raw[0])
	}
	if !strings.Contains(string(data), "\n    {") {
		t.Fatalf("expected 4-space indentation:\n%s", data)
	}
}

func TestSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := SaveSnapshot(path, Snapshot{}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("got %q want []", data)
	}
}

func TestLoadMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(" \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.json"), empty} {
		snap, err := LoadSnapshot(path)
		if err != nil {
			t.Fatalf("%s: err=%v", path, err)
		}
		if !snap.Fresh || len(snap.Accounts) != 0 {
			t.Fatalf("%s: got=%+v want fresh empty snapshot", path, snap)
		}
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"garbage":    "{not json",
		"object":     `{"username":"a"}`,
		"wrong type": `[{"username":"a","balance":"ten"}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSnapshot(path); !errors.Is(err, ErrCorruptState) {
				t.Fatalf("want ErrCorruptState, got %v", err)
			}
		})
	}
}

func TestSaveUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "profiles.json")
	if err := SaveSnapshot(path, Snapshot{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
}

// TestSaveKeepsPreviousOnFailure 目標路徑為目錄時 rename 失敗，原內容與目錄皆不受影響。
func TestSaveKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "profiles.json")
	if err := os.Mkdir(target, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SaveSnapshot(target, Snapshot{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file should be cleaned up, entries=%d", len(entries))
	}
}

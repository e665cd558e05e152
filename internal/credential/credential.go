// internal/credential/credential.go

// Package credential 負責密碼的加鹽雜湊與驗證。
// 雜湊格式：hex(SHA-256(secret + salt))；鹽值為 16 bytes 隨機數的 hex 字串。
// 本層不知道帳戶或檔案的存在，只處理字串。
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// SaltSize 為鹽值的原始位元組數（128 bits）。
const SaltSize = 16

// ErrRandomnessUnavailable 代表無法從亂數來源讀取足夠的位元組。
// 僅使該次註冊/改密碼失敗，不影響程序。
var ErrRandomnessUnavailable = errors.New("randomness unavailable")

// Credential 為儲存的密碼表示：十六進位雜湊與鹽值。
type Credential struct {
	Hash string `json:"password_hash"`
	Salt string `json:"salt"`
}

// Hasher 產生鹽值並計算雜湊。
// Rand 為 nil 時使用 crypto/rand.Reader。
type Hasher struct {
	Rand io.Reader
}

// Default 使用系統 CSPRNG。
var Default = &Hasher{}

func (h *Hasher) reader() io.Reader {
	if h == nil || h.Rand == nil {
		return rand.Reader
	}
	return h.Rand
}

// Hash 回傳 hex(SHA-256(secret + salt))，固定 64 字元。
func Hash(secret, salt string) string {
	sum := sha256.Sum256([]byte(secret + salt))
	return hex.EncodeToString(sum[:])
}

// NewSalt 讀取 SaltSize 個隨機位元組並編碼為 32 字元 hex。
func (h *Hasher) NewSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := io.ReadFull(h.reader(), b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return hex.EncodeToString(b), nil
}

// Set 以新鹽值建立 Credential，用於註冊與改密碼。
func (h *Hasher) Set(secret string) (Credential, error) {
	salt, err := h.NewSalt()
	if err != nil {
		return Credential{}, err
	}
	return Credential{Hash: Hash(secret, salt), Salt: salt}, nil
}

// Verify 以儲存的鹽值重算雜湊並做常數時間比較。
func Verify(secret string, c Credential) bool {
	got := Hash(secret, c.Salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(c.Hash)) == 1
}

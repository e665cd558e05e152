// internal/cli/bootstrap.go
//
// 帳本的啟動流程：讀取快照、還原帳戶、必要時建立預設管理帳戶。
// 只有需要帳本的子命令才會觸發，help / flags 不會碰到資料檔。
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"

	"termbank/internal/bank"
	"termbank/internal/config"
	"termbank/internal/storage"
)

// OpenLedger 依 cfg 載入資料檔並回傳可用的帳本。
// 資料檔損毀時回傳 storage.ErrCorruptState，不會以空帳本覆寫。
// 首次啟動的提示寫到 out。
func OpenLedger(cfg config.Config, out io.Writer) (*bank.Ledger, error) {
	store := &storage.JSONStore{Path: cfg.DataFile}
	snap, err := store.Load()
	if errors.Is(err, storage.ErrCorruptState) {
		log.Printf("level=error component=storage msg=\"accounts file is corrupt, refusing to start\" file=%s err=%v", cfg.DataFile, err)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if snap.Fresh {
		fmt.Fprintln(out, "No profile data found. Starting fresh.")
	}

	ledger := bank.NewLedger(store, bank.WithOpeningBalance(cfg.OpeningBalance))
	if err := ledger.Restore(snap); err != nil {
		log.Printf("level=error component=storage msg=\"invalid accounts file\" file=%s err=%v", cfg.DataFile, err)
		return nil, err
	}
	if !snap.Fresh {
		log.Printf("level=info component=storage msg=\"profiles loaded\" file=%s accounts=%d", cfg.DataFile, ledger.Len())
	}

	created, err := ledger.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword)
	switch {
	case err != nil && !created:
		return nil, fmt.Errorf("create default admin account: %w", err)
	case err != nil:
		log.Printf("level=warn component=storage msg=\"default admin account not saved\" err=%v", err)
	case created:
		log.Printf("level=info component=bank msg=\"default admin account created\" username=%s", cfg.AdminUsername)
	}
	return ledger, nil
}

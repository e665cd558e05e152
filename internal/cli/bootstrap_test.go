// internal/cli/bootstrap_test.go
//
// 啟動流程測試：首次啟動建立管理帳戶、損毀檔案拒絕啟動，
// 以及只有需要帳本的子命令才會載入資料檔。
package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"termbank/internal/bank"
	"termbank/internal/config"
	"termbank/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DataFile:       filepath.Join(t.TempDir(), "profiles.json"),
		AdminUsername:  "admin",
		AdminPassword:  "admin123",
		OpeningBalance: decimal.NewFromInt(10),
	}
}

func TestOpenLedgerFresh(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	l, err := OpenLedger(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No profile data found. Starting fresh.") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if _, err := l.Login("admin", "admin123"); err != nil {
		t.Fatalf("admin login: %v", err)
	}

	// 第二次啟動讀回同一個管理帳戶，不重複建立
	out.Reset()
	l2, err := OpenLedger(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	if l2.Len() != 1 || out.Len() != 0 {
		t.Fatalf("len=%d output=%q", l2.Len(), out.String())
	}
}

func TestOpenLedgerCorrupt(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.DataFile, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenLedger(cfg, &bytes.Buffer{}); !errors.Is(err, storage.ErrCorruptState) {
		t.Fatalf("want ErrCorruptState, got %v", err)
	}
	b, err := os.ReadFile(cfg.DataFile)
	if err != nil || string(b) != "{not json" {
		t.Fatalf("corrupt file must be left untouched, got %q err=%v", b, err)
	}
}

// newCommander 組出與 main 相同的子命令集合，輸出導向 buffer。
func newCommander(args ...string) (*subcommands.Commander, *bytes.Buffer) {
	var out bytes.Buffer
	fs := flag.NewFlagSet("bank", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "bank")
	c.Output = &out
	c.Error = &out
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	Register(c)
	_ = fs.Parse(args)
	return c, &out
}

// TestLedgerOpenedOnDemand help、flags 不載入帳本也不建立資料檔；
// accounts 第一次執行時才載入，之後沿用同一個帳本。
func TestLedgerOpenedOnDemand(t *testing.T) {
	cfg := testConfig(t)
	opens := 0
	var out bytes.Buffer
	app := &App{Config: cfg, In: strings.NewReader(""), Out: &out}
	app.Open = func() (*bank.Ledger, error) {
		opens++
		return OpenLedger(cfg, &out)
	}

	for _, args := range [][]string{{"help"}, {"flags"}, {"commands"}, {"help", "accounts"}} {
		c, _ := newCommander(args...)
		if st := c.Execute(context.Background(), app); st != subcommands.ExitSuccess {
			t.Fatalf("%v: status=%v", args, st)
		}
	}
	if opens != 0 {
		t.Fatalf("opens=%d want 0", opens)
	}
	if _, err := os.Stat(cfg.DataFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("data file should not exist yet, stat err=%v", err)
	}

	for i := 0; i < 2; i++ {
		c, _ := newCommander("accounts")
		if st := c.Execute(context.Background(), app); st != subcommands.ExitSuccess {
			t.Fatalf("accounts status=%v", st)
		}
	}
	if opens != 1 {
		t.Fatalf("opens=%d want 1", opens)
	}
	if _, err := os.Stat(cfg.DataFile); err != nil {
		t.Fatalf("data file should exist after accounts: %v", err)
	}
	if !strings.Contains(out.String(), "admin") {
		t.Fatalf("accounts output missing admin:\n%s", out.String())
	}
}

func TestLedgerOpenFailure(t *testing.T) {
	app := &App{
		Open: func() (*bank.Ledger, error) { return nil, storage.ErrCorruptState },
		In:   strings.NewReader(""),
		Out:  &bytes.Buffer{},
	}
	c, _ := newCommander("accounts")
	if st := c.Execute(context.Background(), app); st != subcommands.ExitFailure {
		t.Fatalf("status=%v want ExitFailure", st)
	}
	if app.Ledger != nil {
		t.Fatal("failed open must not leave a ledger behind")
	}
}

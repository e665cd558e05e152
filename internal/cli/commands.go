// internal/cli/commands.go
//
// 子命令註冊。main 建立 App 後以 commander.Execute(ctx, app) 傳入，
// 各子命令由 args[0] 取得帳本與設定；帳本在第一次需要時才載入。
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"termbank/internal/bank"
	"termbank/internal/config"
)

// App 為子命令共用的執行環境。
// Ledger 為 nil 時，第一次需要帳本的子命令會呼叫 Open 建立並保留。
type App struct {
	Ledger *bank.Ledger
	Open   func() (*bank.Ledger, error)
	Config config.Config
	In     io.Reader
	Out    io.Writer
}

var errNoLedger = errors.New("no ledger configured")

func (a *App) ledger() (*bank.Ledger, error) {
	if a.Ledger != nil {
		return a.Ledger, nil
	}
	if a.Open == nil {
		return nil, errNoLedger
	}
	l, err := a.Open()
	if err != nil {
		return nil, err
	}
	a.Ledger = l
	return l, nil
}

// Register 註冊所有子命令。
func Register(c *subcommands.Commander) {
	c.Register(&ShellCmd{}, "session")
	c.Register(&accountsCmd{}, "ledger")
	c.Register(&passwdCmd{}, "ledger")
}

// ledgerFrom 由 args[0] 取得 App 與已載入的帳本；失敗時已輸出錯誤。
func ledgerFrom(args []interface{}) (*App, *bank.Ledger, bool) {
	if len(args) == 0 {
		return nil, nil, false
	}
	app, _ := args[0].(*App)
	if app == nil {
		return nil, nil, false
	}
	l, err := app.ledger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return nil, nil, false
	}
	return app, l, true
}

// ShellCmd 執行互動選單，未指定子命令時也預設執行它。
type ShellCmd struct{}

func (*ShellCmd) Name() string     { return "shell" }
func (*ShellCmd) Synopsis() string { return "start the interactive banking menu" }
func (*ShellCmd) Usage() string {
	return `bank shell

  Starts the interactive menu: register or log in, then withdraw, deposit,
  transfer, change password or log out. Enter q to quit.
`
}

func (*ShellCmd) SetFlags(*flag.FlagSet) {}

func (*ShellCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, l, ok := ledgerFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	sh := NewShell(l, app.In, app.Out)
	sh.SaveFailureFatal = app.Config.SaveFailureFatal
	if err := sh.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list registered accounts and balances" }
func (*accountsCmd) Usage() string {
	return `bank accounts

  Prints every account in registration order with its balance.
`
}

func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (*accountsCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, l, ok := ledgerFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tBALANCE")
	for _, a := range l.Accounts() {
		fmt.Fprintf(w, "%s\t%s\n", a.Username, money(a.Balance))
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type passwdCmd struct {
	username string
}

func (*passwdCmd) Name() string     { return "passwd" }
func (*passwdCmd) Synopsis() string { return "change the password of an account" }
func (*passwdCmd) Usage() string {
	return `bank passwd -u <username>

  Prompts for the current password, then for the new one twice.
`
}

func (p *passwdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.username, "u", "", "Account username.")
}

func (p *passwdCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if p.username == "" {
		fmt.Fprintln(os.Stderr, "Error: -u is required.")
		return subcommands.ExitUsageError
	}
	app, l, ok := ledgerFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}

	sh := NewShell(l, app.In, app.Out)
	current, err := sh.readSecret("Current password: ")
	if err != nil {
		return subcommands.ExitFailure
	}
	if _, err := l.Login(p.username, current); err != nil {
		writeErr(app.Out, err)
		return subcommands.ExitFailure
	}
	defer l.Logout()

	next, err := sh.readSecret("New password: ")
	if err != nil {
		return subcommands.ExitFailure
	}
	confirm, err := sh.readSecret("Confirm new password: ")
	if err != nil {
		return subcommands.ExitFailure
	}
	if next != confirm {
		fmt.Fprintln(app.Out, "Passwords do not match!")
		return subcommands.ExitFailure
	}
	if err := l.ChangePassword(current, next); err != nil {
		writeErr(app.Out, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(app.Out, "Password changed successfully!")
	return subcommands.ExitSuccess
}

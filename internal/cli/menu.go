// internal/cli/menu.go
//
// Package cli 提供終端介面，作為 bank 模組的應用層。
// 每個選單項目僅負責：
//  1. 讀取並整理輸入
//  2. 呼叫 bank.Ledger 執行商業邏輯
//  3. 將結果或錯誤轉成操作者訊息
//
// 持久化由 Ledger 在每次成功變更後自行觸發，本層只負責回報寫入失敗。
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"termbank/internal/bank"
	"termbank/internal/storage"
)

// ErrSaveFailed 在 SaveFailureFatal 開啟且快照寫入失敗時由 Run 回傳。
var ErrSaveFailed = errors.New("snapshot could not be saved")

var errQuit = errors.New("quit")

// Shell 為互動式選單。
// - Ledger：注入的帳本，Shell 不持有任何帳戶狀態。
// - fd：stdin 為終端時的檔案描述子，用於隱藏密碼輸入；否則為 -1。
// - 終端模式下 in 為 nil，一般行改由 raw 逐 byte 讀取，
//   確保 term.ReadPassword 與 readLine 看到同一個輸入順序。
type Shell struct {
	Ledger           *bank.Ledger
	SaveFailureFatal bool

	in  *bufio.Reader
	raw io.Reader
	out io.Writer
	fd  int
}

// NewShell 建立讀取 in、輸出到 out 的選單。
func NewShell(l *bank.Ledger, in io.Reader, out io.Writer) *Shell {
	s := &Shell{Ledger: l, out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.fd = int(f.Fd())
		s.raw = f
		return s
	}
	s.in = bufio.NewReader(in)
	return s
}

// Run 執行選單迴圈，直到輸入 q、輸入結束或 ctx 取消。
func (s *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		var err error
		if cur, ok := s.Ledger.Current(); ok {
			err = s.accountMenu(cur)
		} else {
			err = s.welcomeMenu()
		}
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case err != nil:
			return err
		}
	}
}

func (s *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	var (
		line string
		err  error
	)
	if s.in == nil {
		line, err = readRawLine(s.raw)
	} else {
		line, err = s.in.ReadString('\n')
	}
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readRawLine 一次讀一個 byte 直到換行，不預讀下一行。
// 回傳值與 bufio.Reader.ReadString 相同：最後一行沒有換行時一併回傳 io.EOF。
func readRawLine(r io.Reader) (string, error) {
	var sb strings.Builder
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n > 0 {
			sb.WriteByte(b[0])
			if b[0] == '\n' {
				return sb.String(), nil
			}
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

func (s *Shell) readSecret(prompt string) (string, error) {
	if s.fd < 0 {
		return s.readLine(prompt)
	}
	fmt.Fprint(s.out, prompt)
	b, err := term.ReadPassword(s.fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readChoice 讀取選單編號；q 代表離開，非數字回傳 ok=false。
func (s *Shell) readChoice() (n int, ok bool, err error) {
	line, err := s.readLine("\nChoose an option: ")
	if err != nil {
		return 0, false, err
	}
	if line == "q" {
		return 0, false, errQuit
	}
	n, perr := strconv.Atoi(line)
	if perr != nil {
		fmt.Fprintln(s.out, "Invalid input! Please enter a number.")
		return 0, false, nil
	}
	return n, true, nil
}

// report 輸出變更操作的結果。
// 快照寫入失敗時變更已生效：先輸出成功訊息，再輸出警告。
func (s *Shell) report(err error, success func()) error {
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		writeErr(s.out, err)
		return nil
	}
	success()
	if err != nil {
		log.Printf("level=error component=cli msg=\"snapshot not saved\" err=%v", err)
		writeErr(s.out, err)
		if s.SaveFailureFatal {
			return fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}
	return nil
}

func (s *Shell) welcomeMenu() error {
	fmt.Fprintln(s.out, "\nWelcome to the Banking System!")
	fmt.Fprintln(s.out, "1. Register\n2. Login\nq. Quit")
	n, ok, err := s.readChoice()
	if err != nil || !ok {
		return err
	}
	switch n {
	case 1:
		return s.register()
	case 2:
		return s.login()
	default:
		fmt.Fprintln(s.out, "Invalid choice!")
		return nil
	}
}

func (s *Shell) accountMenu(cur bank.Account) error {
	fmt.Fprintf(s.out, "\nYou are logged in as: %s\n", cur.Username)
	fmt.Fprintf(s.out, "Your balance is: %s\n", money(cur.Balance))
	fmt.Fprintln(s.out, "1. Withdraw\n2. Deposit\n3. Transaction\n4. Change password\n5. Log out\nq. Quit")
	n, ok, err := s.readChoice()
	if err != nil || !ok {
		return err
	}
	switch n {
	case 1:
		return s.withdraw()
	case 2:
		return s.deposit()
	case 3:
		return s.transfer()
	case 4:
		return s.changePassword()
	case 5:
		s.Ledger.Logout()
		fmt.Fprintln(s.out, "Logged out successfully!")
		return nil
	default:
		fmt.Fprintln(s.out, "Invalid choice!")
		return nil
	}
}

func (s *Shell) register() error {
	username, err := s.readLine("Enter username: ")
	if err != nil {
		return err
	}
	password, err := s.readSecret("Enter password: ")
	if err != nil {
		return err
	}
	_, err = s.Ledger.Register(username, password)
	return s.report(err, func() { fmt.Fprintln(s.out, "Registration successful!") })
}

func (s *Shell) login() error {
	username, err := s.readLine("Enter username: ")
	if err != nil {
		return err
	}
	password, err := s.readSecret("Enter password: ")
	if err != nil {
		return err
	}
	bal, err := s.Ledger.Login(username, password)
	if err != nil {
		writeErr(s.out, err)
		return nil
	}
	fmt.Fprintf(s.out, "Login successful! Welcome, %s\n", username)
	fmt.Fprintf(s.out, "Your balance is: %s\n", money(bal))
	return nil
}

// amountInput 解析金額輸入。解析失敗一律以零值交給 Ledger，
// 讓「未登入」「轉給自己」等較前面的檢核先回報；零值本身會得到 ErrInvalidAmount。
func amountInput(raw string) decimal.Decimal {
	amt, err := bank.ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return amt
}

func (s *Shell) withdraw() error {
	raw, err := s.readLine("Enter amount to withdraw: ")
	if err != nil {
		return err
	}
	amt := amountInput(raw)
	a, err := s.Ledger.Withdraw(amt)
	return s.report(err, func() {
		fmt.Fprintf(s.out, "Withdrawal successful! New balance: %s\n", money(a.Balance))
	})
}

func (s *Shell) deposit() error {
	raw, err := s.readLine("Enter amount to deposit: ")
	if err != nil {
		return err
	}
	amt := amountInput(raw)
	a, err := s.Ledger.Deposit(amt)
	return s.report(err, func() {
		fmt.Fprintf(s.out, "Deposit successful! New balance: %s\n", money(a.Balance))
	})
}

func (s *Shell) transfer() error {
	recipient, err := s.readLine("Enter the username of the user you want to transfer to: ")
	if err != nil {
		return err
	}
	raw, err := s.readLine("Enter amount to transfer: ")
	if err != nil {
		return err
	}
	amt := amountInput(raw)
	a, err := s.Ledger.Transfer(amt, recipient)
	return s.report(err, func() {
		fmt.Fprintf(s.out, "Transaction successful! Your new balance: %s\n", money(a.Balance))
	})
}

func (s *Shell) changePassword() error {
	current, err := s.readSecret("Enter current password: ")
	if err != nil {
		return err
	}
	next, err := s.readSecret("Enter new password: ")
	if err != nil {
		return err
	}
	confirm, err := s.readSecret("Confirm new password: ")
	if err != nil {
		return err
	}
	if next != confirm {
		fmt.Fprintln(s.out, "Passwords do not match!")
		return nil
	}
	err = s.Ledger.ChangePassword(current, next)
	return s.report(err, func() { fmt.Fprintln(s.out, "Password changed successfully!") })
}

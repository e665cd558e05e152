// cmd/bank/main.go

// 終端銀行帳本的進入點。
// 負責讀取設定並組裝子命令（預設為互動選單）；
// 帳本在子命令需要時才由 cli.OpenLedger 載入。

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"termbank/internal/bank"
	"termbank/internal/cli"
	"termbank/internal/config"
)

var (
	dataFile = flag.String("data-file", "", "Path to the accounts file (overrides BANK_DATA_FILE).")
	envDir   = flag.String("env-dir", ".", "Directory searched for an optional .env file.")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg, err := config.LoadConfig(*envDir)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	// 每次變更都已寫入快照，Ctrl-C 直接結束即可，不攔截訊號
	ctx := context.Background()
	app := &cli.App{Config: cfg, In: os.Stdin, Out: os.Stdout}
	app.Open = func() (*bank.Ledger, error) { return cli.OpenLedger(cfg, os.Stdout) }
	var status subcommands.ExitStatus
	if flag.NArg() == 0 {
		status = (&cli.ShellCmd{}).Execute(ctx, flag.CommandLine, app)
	} else {
		status = commander.Execute(ctx, app)
	}
	os.Exit(int(status))
}

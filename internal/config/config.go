// Package config 載入終端銀行的執行設定。
// 以 Viper 讀取環境變數與選用的 .env 檔，環境變數優先。
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"termbank/internal/bank"
)

// Config 為所有執行設定。
type Config struct {
	DataFile          string `mapstructure:"BANK_DATA_FILE"`
	AdminUsername     string `mapstructure:"BANK_ADMIN_USERNAME"`
	AdminPassword     string `mapstructure:"BANK_ADMIN_PASSWORD"`
	OpeningBalanceRaw string `mapstructure:"BANK_OPENING_BALANCE"`
	SaveFailureFatal  bool   `mapstructure:"BANK_SAVE_FAILURE_FATAL"`

	// OpeningBalance 由 OpeningBalanceRaw 解析而來。
	OpeningBalance decimal.Decimal `mapstructure:"-"`
}

// LoadConfig 讀取環境變數與 path 目錄下選用的 .env 檔。
// .env 不存在不算錯誤；值不合法時回傳錯誤，由呼叫端決定是否中止。
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("BANK_DATA_FILE", "profiles.json")
	viper.SetDefault("BANK_ADMIN_USERNAME", "admin")
	viper.SetDefault("BANK_ADMIN_PASSWORD", "admin123")
	viper.SetDefault("BANK_OPENING_BALANCE", "10")
	viper.SetDefault("BANK_SAVE_FAILURE_FATAL", false)

	_ = viper.BindEnv("BANK_DATA_FILE")
	_ = viper.BindEnv("BANK_ADMIN_USERNAME")
	_ = viper.BindEnv("BANK_ADMIN_PASSWORD")
	_ = viper.BindEnv("BANK_OPENING_BALANCE")
	_ = viper.BindEnv("BANK_SAVE_FAILURE_FATAL")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.DataFile = strings.TrimSpace(config.DataFile)
	if config.DataFile == "" {
		return config, fmt.Errorf("BANK_DATA_FILE must not be empty")
	}
	if strings.TrimSpace(config.AdminUsername) == "" || config.AdminPassword == "" {
		return config, fmt.Errorf("BANK_ADMIN_USERNAME and BANK_ADMIN_PASSWORD must not be empty")
	}
	config.OpeningBalance, err = decimal.NewFromString(strings.TrimSpace(config.OpeningBalanceRaw))
	if err != nil {
		return config, fmt.Errorf("invalid BANK_OPENING_BALANCE %q: %w", config.OpeningBalanceRaw, err)
	}
	if config.OpeningBalance.IsNegative() {
		return config, fmt.Errorf("BANK_OPENING_BALANCE must not be negative, got %s", config.OpeningBalance)
	}
	if !bank.InRange(config.OpeningBalance) {
		return config, fmt.Errorf("BANK_OPENING_BALANCE out of range, got %q", config.OpeningBalanceRaw)
	}
	return config, nil
}

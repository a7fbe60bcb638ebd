// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Wallet backend: memory, local (sqlite) or postgres.
	LedgerMode  string `env:"LEDGER_MODE" envDefault:"memory"`
	SQLitePath  string `env:"LEDGER_SQLITE_PATH" envDefault:"data/wallet.db"`
	PostgresDSN string `env:"LEDGER_POSTGRES_DSN"`

	// Chips granted to fresh accounts so they can sit down right away.
	SignupBonus int64 `env:"WALLET_SIGNUP_BONUS" envDefault:"10000"`

	// Default table settings for lobby-created tables.
	TableMaxSeats    int           `env:"TABLE_MAX_SEATS" envDefault:"6"`
	TableMinPlayers  int           `env:"TABLE_MIN_PLAYERS" envDefault:"2"`
	TableSmallBlind  int64         `env:"TABLE_SMALL_BLIND" envDefault:"10"`
	TableBigBlind    int64         `env:"TABLE_BIG_BLIND" envDefault:"20"`
	TableMinBuyIn    int64         `env:"TABLE_MIN_BUY_IN" envDefault:"400"`
	TableMaxBuyIn    int64         `env:"TABLE_MAX_BUY_IN" envDefault:"4000"`
	TableAllowRebuys bool          `env:"TABLE_ALLOW_REBUYS" envDefault:"true"`
	TableTurnTime    time.Duration `env:"TABLE_TURN_TIME" envDefault:"30s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LedgerMode {
	case "memory", "local", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid LEDGER_MODE %q", c.LedgerMode)
	}
	if c.LedgerMode == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("LEDGER_POSTGRES_DSN required for postgres mode")
	}
	if c.SignupBonus < 0 {
		return fmt.Errorf("WALLET_SIGNUP_BONUS must be >= 0")
	}
	if c.TableSmallBlind <= 0 || c.TableBigBlind < c.TableSmallBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.TableSmallBlind, c.TableBigBlind)
	}
	if c.TableMinBuyIn <= 0 || c.TableMaxBuyIn < c.TableMinBuyIn {
		return fmt.Errorf("invalid buy-in bounds: min=%d max=%d", c.TableMinBuyIn, c.TableMaxBuyIn)
	}
	if c.TableTurnTime <= 0 {
		return fmt.Errorf("TABLE_TURN_TIME must be positive")
	}
	return nil
}

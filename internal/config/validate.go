package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *BotConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Gateway.URL == "" {
		return errors.New("gateway.url is required")
	}

	if c.API.RestURL == "" {
		return errors.New("api.rest_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.DecodeLimit < 1 {
		return errors.New("api.decode_limit must be >= 1")
	}

	if c.Timing.RefreshCycle <= 0 {
		return errors.New("timing.refresh_cycle must be positive")
	}
	if c.Timing.EarlyPollWindow <= 0 {
		return errors.New("timing.early_poll_window must be positive")
	}
	if c.Timing.CalibrateAttempts < 1 {
		return errors.New("timing.calibrate_attempts must be >= 1")
	}
	if c.Timing.SpamAttempts < 1 {
		return errors.New("timing.spam_attempts must be >= 1")
	}

	if c.Flips.ListUnderSecondLBin < 0 || c.Flips.ListUnderSecondLBin > 100 {
		return fmt.Errorf("flips.list_under_2nd_lbin must be between 0 and 100, got %d", c.Flips.ListUnderSecondLBin)
	}
	if c.Flips.MaxPurchases < 1 {
		return errors.New("flips.max_purchases must be >= 1")
	}
	if c.Flips.ProfitMarginThreshold < 0 {
		return errors.New("flips.profit_margin_threshold must be >= 0")
	}
	if c.Flips.MinRawProfit < 0 {
		return errors.New("flips.min_raw_profit must be >= 0")
	}
	if c.Flips.MaxPrice < 1 {
		return errors.New("flips.max_price must be >= 1")
	}
	if c.Flips.StockMin < 2 {
		// The detector never compares fewer than two listings.
		return errors.New("flips.stock_min must be >= 2")
	}

	if c.Claims.NavRetries < 0 {
		return errors.New("claims.nav_retries must be >= 0")
	}
	if c.Claims.RelistAttempts < 1 {
		return errors.New("claims.relist_attempts must be >= 1")
	}

	if c.Store.HistoryFile == "" {
		return errors.New("store.history_file is required")
	}
	if c.Store.LedgerFile == "" {
		return errors.New("store.ledger_file is required")
	}
	if c.Store.Retention <= 0 {
		return errors.New("store.retention must be positive")
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

package config

import "time"

// BotConfig is the root configuration for a flipper instance.
type BotConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	API       APIConfig       `yaml:"api"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Timing    TimingConfig    `yaml:"timing"`
	Flips     FlipConfig      `yaml:"flips"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Purchase  PurchaseConfig  `yaml:"purchase"`
	Claims    ClaimsConfig    `yaml:"claims"`
	Store     StoreConfig     `yaml:"store"`
	Database  DBConfig        `yaml:"database"`
	Health    HealthConfig    `yaml:"health"`
}

// InstanceConfig identifies this flipper.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds auction API settings.
type APIConfig struct {
	RestURL      string        `yaml:"rest_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	PageFanout   bool          `yaml:"page_fanout"` // fetch snapshot pages concurrently
	DecodeLimit  int           `yaml:"decode_limit"`
}

// GatewayConfig holds the world-session gateway connection.
type GatewayConfig struct {
	URL          string        `yaml:"url"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

// TimingConfig holds snapshot refresh prediction settings.
type TimingConfig struct {
	RefreshCycle      time.Duration `yaml:"refresh_cycle"`      // remote snapshot rebuild period
	EarlyPollWindow   time.Duration `yaml:"early_poll_window"`  // start tight polling this close to the predicted refresh
	CalibrateInterval time.Duration `yaml:"calibrate_interval"` // freshness poll spacing during calibration
	CalibrateAttempts int           `yaml:"calibrate_attempts"`
	SpamAttempts      int           `yaml:"spam_attempts"` // tight-poll budget in the early-poll window
}

// FlipConfig holds flip detection thresholds.
type FlipConfig struct {
	ListUnderSecondLBin   int     `yaml:"list_under_2nd_lbin"` // percent undercut below the second-cheapest listing
	Purchasing            bool    `yaml:"purchasing"`
	MaxPurchases          int     `yaml:"max_purchases"` // cap on the pending re-list queue
	ProfitMarginThreshold float64 `yaml:"profit_margin_threshold"`
	MinRawProfit          float64 `yaml:"min_raw_profit"`
	MaxPrice              int64   `yaml:"max_price"`
	StockMin              int     `yaml:"stock_min"`
}

// UnderbidFraction returns the undercut as a fraction (15 -> 0.15).
func (f FlipConfig) UnderbidFraction() float64 {
	return float64(f.ListUnderSecondLBin) / 100
}

// NormalizeConfig controls which cosmetic tokens are stripped when building
// comparison keys.
type NormalizeConfig struct {
	ExcludeReforges       bool `yaml:"exclude_reforges"`
	ExcludeStars          bool `yaml:"exclude_stars"`
	ExcludeSpecials       bool `yaml:"exclude_specials"`
	ExcludePetLevel       bool `yaml:"exclude_pet_level"`
	ExcludeRarities       bool `yaml:"exclude_rarities"`
	ExcludeRaritiesForPets bool `yaml:"exclude_rarities_for_pets"`
}

// PurchaseConfig holds purchase executor timeouts.
type PurchaseConfig struct {
	ViewTimeout    time.Duration `yaml:"view_timeout"`    // budget for the listing detail window and buy affordance
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"` // budget for the confirm dialog
	ChatTimeout    time.Duration `yaml:"chat_timeout"`    // budget for the chat confirmation signal
	PollQuantum    time.Duration `yaml:"poll_quantum"`    // sleep between window content polls
}

// ClaimsConfig holds claim and relist settings.
type ClaimsConfig struct {
	ClaimInterval  time.Duration `yaml:"claim_interval"` // minimum spacing of sold-item sweeps
	WindowTimeout  time.Duration `yaml:"window_timeout"`
	NavRetries     int           `yaml:"nav_retries"`     // per navigation step
	RelistAttempts int           `yaml:"relist_attempts"` // full-flow attempts per item
	SettleDelay    time.Duration `yaml:"settle_delay"`    // used where the gateway offers no signal to wait on
}

// StoreConfig holds on-disk persistence settings.
type StoreConfig struct {
	HistoryFile string        `yaml:"history_file"`
	LedgerFile  string        `yaml:"ledger_file"`
	Retention   time.Duration `yaml:"retention"` // price history retention window
}

// DBConfig holds the optional Postgres ledger mirror. An empty host disables
// the mirror.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether the ledger mirror is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

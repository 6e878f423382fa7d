package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL           = "https://api.hypixel.net/skyblock"
	DefaultAPITimeout        = 5 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 300 * time.Millisecond
	DefaultDecodeLimit       = 100
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingTimeout       = 60 * time.Second
	DefaultBufferSize        = 1000
	DefaultRefreshCycle      = 60 * time.Second
	DefaultEarlyPollWindow   = 2 * time.Second
	DefaultCalibrateInterval = 500 * time.Millisecond
	DefaultCalibrateAttempts = 180
	DefaultSpamAttempts      = 120
	DefaultUndercutPercent   = 15
	DefaultMaxPurchases      = 3
	DefaultMarginThreshold   = 0.5
	DefaultMinRawProfit      = 500_000
	DefaultMaxPrice          = 10_000_000_000
	DefaultStockMin          = 40
	DefaultViewTimeout       = 22 * time.Second
	DefaultConfirmTimeout    = 5 * time.Second
	DefaultChatTimeout       = 22 * time.Second
	DefaultPollQuantum       = 5 * time.Millisecond
	DefaultClaimInterval     = 5 * time.Minute
	DefaultWindowTimeout     = 3 * time.Second
	DefaultNavRetries        = 3
	DefaultRelistAttempts    = 3
	DefaultSettleDelay       = 800 * time.Millisecond
	DefaultHistoryFile       = "priceHistory.json"
	DefaultLedgerFile        = "purchases.json"
	DefaultRetention         = 7 * 24 * time.Hour
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultHealthPort        = 8080
	DefaultHealthPath        = "/health"
)

// Default returns a fully-populated configuration. Load unmarshals the YAML
// file over this value, so keys absent from the file keep these settings.
// This is also how boolean options get non-false defaults.
func Default() BotConfig {
	return BotConfig{
		API: APIConfig{
			RestURL:      DefaultRestURL,
			Timeout:      DefaultAPITimeout,
			MaxRetries:   DefaultMaxRetries,
			RetryBackoff: DefaultRetryBackoff,
			PageFanout:   true,
			DecodeLimit:  DefaultDecodeLimit,
		},
		Gateway: GatewayConfig{
			WriteTimeout: DefaultWriteTimeout,
			PingTimeout:  DefaultPingTimeout,
			BufferSize:   DefaultBufferSize,
		},
		Timing: TimingConfig{
			RefreshCycle:      DefaultRefreshCycle,
			EarlyPollWindow:   DefaultEarlyPollWindow,
			CalibrateInterval: DefaultCalibrateInterval,
			CalibrateAttempts: DefaultCalibrateAttempts,
			SpamAttempts:      DefaultSpamAttempts,
		},
		Flips: FlipConfig{
			ListUnderSecondLBin:   DefaultUndercutPercent,
			Purchasing:            true,
			MaxPurchases:          DefaultMaxPurchases,
			ProfitMarginThreshold: DefaultMarginThreshold,
			MinRawProfit:          DefaultMinRawProfit,
			MaxPrice:              DefaultMaxPrice,
			StockMin:              DefaultStockMin,
		},
		Normalize: NormalizeConfig{
			ExcludeReforges: true,
			ExcludeStars:    true,
			ExcludeSpecials: true,
			ExcludePetLevel: true,
		},
		Purchase: PurchaseConfig{
			ViewTimeout:    DefaultViewTimeout,
			ConfirmTimeout: DefaultConfirmTimeout,
			ChatTimeout:    DefaultChatTimeout,
			PollQuantum:    DefaultPollQuantum,
		},
		Claims: ClaimsConfig{
			ClaimInterval:  DefaultClaimInterval,
			WindowTimeout:  DefaultWindowTimeout,
			NavRetries:     DefaultNavRetries,
			RelistAttempts: DefaultRelistAttempts,
			SettleDelay:    DefaultSettleDelay,
		},
		Store: StoreConfig{
			HistoryFile: DefaultHistoryFile,
			LedgerFile:  DefaultLedgerFile,
			Retention:   DefaultRetention,
		},
		Database: DBConfig{
			Port:     DefaultDBPort,
			SSLMode:  DefaultDBSSLMode,
			MaxConns: DefaultMaxConns,
			MinConns: DefaultMinConns,
		},
		Health: HealthConfig{
			Port: DefaultHealthPort,
			Path: DefaultHealthPath,
		},
	}
}

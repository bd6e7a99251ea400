// Package ops loads and validates runtime configuration. Config files
// are JSON or YAML; monetary fields are decimal strings resolved into
// scaled integers at the boundary so nothing downstream parses text.
package ops

import (
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"gopkg.in/yaml.v3"

	"main/internal/engine"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/marketdata"
	"main/internal/resilience"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
	"main/pkg/fixed"
)

// FileConfig mirrors the config file layout.
type FileConfig struct {
	Market   MarketConfig   `json:"market" yaml:"market"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	WAL      WALConfig      `json:"wal" yaml:"wal"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// MarketConfig bounds what the validator accepts from the feed.
type MarketConfig struct {
	ID                uint64 `json:"id" yaml:"id"`
	MinSpreadBps      int64  `json:"minSpreadBps" yaml:"minSpreadBps"`
	MaxSpreadBps      int64  `json:"maxSpreadBps" yaml:"maxSpreadBps"`
	MaxAgeMs          int64  `json:"maxAgeMs" yaml:"maxAgeMs"`
	ClockSkewMs       int64  `json:"clockSkewMs" yaml:"clockSkewMs"`
	StaleAfterMs      int64  `json:"staleAfterMs" yaml:"staleAfterMs"`
	OfflineEmptyPolls int    `json:"offlineEmptyPolls" yaml:"offlineEmptyPolls"`
	ResyncTimeoutMs   int64  `json:"resyncTimeoutMs" yaml:"resyncTimeoutMs"`
}

// StrategyConfig selects and parameterizes the quoting strategy.
type StrategyConfig struct {
	Kind                   string          `json:"kind" yaml:"kind"`
	SpreadBps              int64           `json:"spreadBps" yaml:"spreadBps"`
	QuoteSize              decimal.Decimal `json:"quoteSize" yaml:"quoteSize"`
	MinProfitableSpreadBps int64           `json:"minProfitableSpreadBps" yaml:"minProfitableSpreadBps"`
	RoundTripFeeBps        int64           `json:"roundTripFeeBps" yaml:"roundTripFeeBps"`
	MaxSkewBps             int64           `json:"maxSkewBps" yaml:"maxSkewBps"`
}

// RiskConfig mirrors the risk limits with decimal monetary fields.
type RiskConfig struct {
	MaxPosition      decimal.Decimal `json:"maxPosition" yaml:"maxPosition"`
	MaxShort         decimal.Decimal `json:"maxShort" yaml:"maxShort"`
	MinOrderSize     decimal.Decimal `json:"minOrderSize" yaml:"minOrderSize"`
	MaxOrderSize     decimal.Decimal `json:"maxOrderSize" yaml:"maxOrderSize"`
	MaxOrderNotional decimal.Decimal `json:"maxOrderNotional" yaml:"maxOrderNotional"`
	MaxDailyLoss     decimal.Decimal `json:"maxDailyLoss" yaml:"maxDailyLoss"`
	MaxDrawdownBps   int64           `json:"maxDrawdownBps" yaml:"maxDrawdownBps"`
}

// EngineConfig holds loop pacing and breaker settings.
type EngineConfig struct {
	MaxJumpBps         int64 `json:"maxJumpBps" yaml:"maxJumpBps"`
	MinQuoteIntervalMs int64 `json:"minQuoteIntervalMs" yaml:"minQuoteIntervalMs"`
	StartupTimeoutMs   int64 `json:"startupTimeoutMs" yaml:"startupTimeoutMs"`
	PollIntervalUs     int64 `json:"pollIntervalUs" yaml:"pollIntervalUs"`
	FeeBps             int64 `json:"feeBps" yaml:"feeBps"`
	FillQueueSize      int   `json:"fillQueueSize" yaml:"fillQueueSize"`
	FeedRingSize       int   `json:"feedRingSize" yaml:"feedRingSize"`
}

// WALConfig locates the durable fill log.
type WALConfig struct {
	Disable        bool   `json:"disable" yaml:"disable"`
	Dir            string `json:"dir" yaml:"dir"`
	CheckpointPath string `json:"checkpointPath" yaml:"checkpointPath"`
}

// JournalConfig holds the PostgreSQL journal settings.
type JournalConfig struct {
	Enable    bool   `json:"enable" yaml:"enable"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	User      string `json:"user" yaml:"user"`
	Password  string `json:"password" yaml:"password"`
	Database  string `json:"database" yaml:"database"`
	QueueSize int    `json:"queueSize" yaml:"queueSize"`
}

// Loaded is the resolved configuration ready for wiring.
type Loaded struct {
	Engine   engine.Config
	Executor exec.SimulatedConfig
	Strategy StrategySpec
	WAL      WALConfig
	Journal  JournalConfig
	RingSize int
}

// StrategySpec is the resolved strategy definition.
type StrategySpec struct {
	Kind      string
	Spread    strategy.SpreadConfig
	Inventory strategy.InventoryConfig
}

// Build constructs the configured strategy.
func (s StrategySpec) Build() strategy.Strategy {
	if s.Kind == "inventory_skew" {
		return strategy.NewInventorySkew(s.Inventory)
	}
	return strategy.NewSimpleSpread(s.Spread)
}

// Load reads a JSON or YAML config file and resolves it. YAML is
// selected by file extension.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}

	var cfg FileConfig
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = sonic.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return Resolve(cfg)
}

// Resolve converts the file layout into wired configs and validates
// cross-field constraints.
func Resolve(cfg FileConfig) (Loaded, error) {
	limits, err := resolveLimits(cfg.Risk)
	if err != nil {
		return Loaded{}, err
	}
	if err := limits.Validate(); err != nil {
		return Loaded{}, err
	}

	spec, err := resolveStrategy(cfg.Strategy, limits)
	if err != nil {
		return Loaded{}, err
	}

	engineCfg := engine.Config{
		MarketID: cfg.Market.ID,
		Validator: marketdata.ValidatorConfig{
			MinSpreadBps:       cfg.Market.MinSpreadBps,
			MaxSpreadBps:       cfg.Market.MaxSpreadBps,
			MaxAge:             time.Duration(cfg.Market.MaxAgeMs) * time.Millisecond,
			ClockSkewTolerance: time.Duration(cfg.Market.ClockSkewMs) * time.Millisecond,
		},
		Stale: resilience.StaleBreakerConfig{
			MaxAge:        time.Duration(cfg.Market.StaleAfterMs) * time.Millisecond,
			MaxEmptyPolls: cfg.Market.OfflineEmptyPolls,
		},
		Recovery: resilience.RecoveryConfig{
			Timeout: time.Duration(cfg.Market.ResyncTimeoutMs) * time.Millisecond,
		},
		Limits:           limits,
		MaxJumpBps:       cfg.Engine.MaxJumpBps,
		MinQuoteInterval: time.Duration(cfg.Engine.MinQuoteIntervalMs) * time.Millisecond,
		StartupTimeout:   time.Duration(cfg.Engine.StartupTimeoutMs) * time.Millisecond,
		PollInterval:     time.Duration(cfg.Engine.PollIntervalUs) * time.Microsecond,
	}

	ringSize := cfg.Engine.FeedRingSize
	if ringSize <= 0 {
		ringSize = 4096
	}

	return Loaded{
		Engine: engineCfg,
		Executor: exec.SimulatedConfig{
			FeeBps:    cfg.Engine.FeeBps,
			QueueSize: cfg.Engine.FillQueueSize,
		},
		Strategy: spec,
		WAL:      cfg.WAL,
		Journal:  cfg.Journal,
		RingSize: ringSize,
	}, nil
}

func resolveLimits(cfg RiskConfig) (risk.Limits, error) {
	maxPosition, err := scaledField(cfg.MaxPosition, "risk.maxPosition")
	if err != nil {
		return risk.Limits{}, err
	}
	maxShort, err := scaledField(cfg.MaxShort, "risk.maxShort")
	if err != nil {
		return risk.Limits{}, err
	}
	minOrderSize, err := scaledField(cfg.MinOrderSize, "risk.minOrderSize")
	if err != nil {
		return risk.Limits{}, err
	}
	maxOrderSize, err := scaledField(cfg.MaxOrderSize, "risk.maxOrderSize")
	if err != nil {
		return risk.Limits{}, err
	}
	maxNotional, err := scaledField(cfg.MaxOrderNotional, "risk.maxOrderNotional")
	if err != nil {
		return risk.Limits{}, err
	}
	maxDailyLoss, err := scaledField(cfg.MaxDailyLoss, "risk.maxDailyLoss")
	if err != nil {
		return risk.Limits{}, err
	}
	return risk.Limits{
		MaxPosition:      schema.Quantity(maxPosition),
		MaxShort:         schema.Quantity(maxShort),
		MinOrderSize:     schema.Quantity(minOrderSize),
		MaxOrderSize:     schema.Quantity(maxOrderSize),
		MaxOrderNotional: schema.Notional(maxNotional),
		MaxDailyLoss:     maxDailyLoss,
		MaxDrawdownBps:   cfg.MaxDrawdownBps,
	}, nil
}

func resolveStrategy(cfg StrategyConfig, limits risk.Limits) (StrategySpec, error) {
	if cfg.SpreadBps <= 0 {
		return StrategySpec{}, errors.New("strategy.spreadBps must be > 0")
	}
	if cfg.MinProfitableSpreadBps <= cfg.RoundTripFeeBps {
		// Quoting below the round-trip fee locks in a loss per trade.
		return StrategySpec{}, errors.New("strategy.minProfitableSpreadBps must exceed roundTripFeeBps")
	}
	quoteSize, err := scaledField(cfg.QuoteSize, "strategy.quoteSize")
	if err != nil {
		return StrategySpec{}, err
	}
	if quoteSize <= 0 {
		return StrategySpec{}, errors.New("strategy.quoteSize must be > 0")
	}
	if schema.Quantity(quoteSize) > limits.MaxOrderSize {
		return StrategySpec{}, errors.New("strategy.quoteSize exceeds risk.maxOrderSize")
	}

	spread := strategy.SpreadConfig{
		SpreadBps:              cfg.SpreadBps,
		QuoteSize:              schema.Quantity(quoteSize),
		MinProfitableSpreadBps: cfg.MinProfitableSpreadBps,
	}

	switch cfg.Kind {
	case "", "simple_spread":
		return StrategySpec{Kind: "simple_spread", Spread: spread}, nil
	case "inventory_skew":
		return StrategySpec{
			Kind: "inventory_skew",
			Inventory: strategy.InventoryConfig{
				SpreadConfig: spread,
				MaxPosition:  limits.MaxPosition,
				MaxSkewBps:   cfg.MaxSkewBps,
			},
		}, nil
	default:
		return StrategySpec{}, errors.New("unknown strategy kind: " + cfg.Kind)
	}
}

// scaledField resolves a decimal config value into a scaled int64. An
// unset field resolves to zero.
func scaledField(d decimal.Decimal, name string) (int64, error) {
	s := strings.TrimSpace(d.String())
	if s == "" {
		return 0, nil
	}
	v, err := fixed.FromString(s)
	if err != nil {
		return 0, errors.Wrap(err, "resolve "+name)
	}
	return v, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var validIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "1h": true,
}

// Config holds all application configuration.
type Config struct {
	Exchanges []string `yaml:"exchanges"`
	Symbols   []string `yaml:"symbols"`
	Interval  string   `yaml:"interval"`
	Lookback  int      `yaml:"lookback"`

	Scan struct {
		PeriodSec   int     `yaml:"period_sec"`
		CooldownSec int     `yaml:"cooldown_sec"`
		MinScore    float64 `yaml:"min_score"`
		MomentumZ   float64 `yaml:"momentum_z"`
		RiskOff     bool    `yaml:"risk_off"`
		Concurrency int     `yaml:"concurrency"`
	} `yaml:"scan"`

	SpotPerp struct {
		Enabled    bool     `yaml:"enabled"`
		Exchanges  []string `yaml:"exchanges"`
		ZWindow    int      `yaml:"z_window"`
		ZThreshold float64  `yaml:"z_threshold"`
		TolSec     int64    `yaml:"tolerance_sec"`
	} `yaml:"spot_perp"`

	Hotlist struct {
		Enabled    bool     `yaml:"enabled"`
		TopN       int      `yaml:"top_n"`
		MinVolUSDT float64  `yaml:"min_vol_usdt"`
		Force      []string `yaml:"force_symbols"`
		Exclude    []string `yaml:"exclude_symbols"`
	} `yaml:"hotlist"`

	Outcomes struct {
		HorizonsMin []int  `yaml:"horizons_min"`
		Cron        string `yaml:"cron"`
	} `yaml:"outcomes"`

	Policy struct {
		MinEventScore float64 `yaml:"min_event_score"`
		MinRSIScore   float64 `yaml:"min_rsi_score"`
		MinMomoScore  float64 `yaml:"min_momo_score"`
		EventCooldown int     `yaml:"event_cooldown_sec"`
		RSICooldown   int     `yaml:"rsi_cooldown_sec"`
		MomoCooldown  int     `yaml:"momo_cooldown_sec"`
		FlipBonus     float64 `yaml:"flip_bonus"`
	} `yaml:"policy"`

	MaxPosUSDT float64 `yaml:"max_position_per_symbol_usdt"`

	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"discord"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and fills defaults. A missing file is fine: env + defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("EXCHANGES"); v != "" {
		cfg.Exchanges = splitCSV(v)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitCSV(v)
	}
	if v := os.Getenv("INTERVAL"); v != "" {
		cfg.Interval = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOOKBACK_CANDLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lookback = n
		}
	}
	if v := os.Getenv("SCAN_PERIOD_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.PeriodSec = n
		}
	}
	if v := os.Getenv("ALERT_COOLDOWN_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.CooldownSec = n
		}
	}
	if v := os.Getenv("ALERT_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.MinScore = f
		}
	}
	if v := os.Getenv("MOMENTUM_Z"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.MomentumZ = f
		}
	}
	if v := os.Getenv("RISK_OFF"); v != "" {
		cfg.Scan.RiskOff = parseBool(v)
	}
	if v := os.Getenv("MAX_POSITION_PER_SYMBOL_USDT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxPosUSDT = f
		}
	}
	if v := os.Getenv("DISCORD_WEBHOOK"); v != "" {
		cfg.Discord.WebhookURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Exchanges) == 0 {
		c.Exchanges = []string{"kucoin"}
	}
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	}
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.Lookback == 0 {
		c.Lookback = 500
	}
	if c.Scan.PeriodSec == 0 {
		c.Scan.PeriodSec = 60
	}
	if c.Scan.CooldownSec == 0 {
		c.Scan.CooldownSec = 180
	}
	if c.Scan.MinScore == 0 {
		c.Scan.MinScore = 2.0
	}
	if c.Scan.MomentumZ == 0 {
		c.Scan.MomentumZ = 2.0
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 4
	}
	if c.SpotPerp.ZWindow == 0 {
		c.SpotPerp.ZWindow = 50
	}
	if c.SpotPerp.ZThreshold == 0 {
		c.SpotPerp.ZThreshold = 2.5
	}
	if c.SpotPerp.TolSec == 0 {
		c.SpotPerp.TolSec = 30
	}
	if c.Hotlist.TopN == 0 {
		c.Hotlist.TopN = 20
	}
	if len(c.Outcomes.HorizonsMin) == 0 {
		c.Outcomes.HorizonsMin = []int{15, 30, 60}
	}
	if c.Outcomes.Cron == "" {
		c.Outcomes.Cron = "0 */10 * * * *"
	}
	if c.Policy.MinEventScore == 0 {
		c.Policy.MinEventScore = 5.5
	}
	if c.Policy.MinRSIScore == 0 {
		c.Policy.MinRSIScore = 6.0
	}
	if c.Policy.MinMomoScore == 0 {
		c.Policy.MinMomoScore = 4.2
	}
	if c.Policy.EventCooldown == 0 {
		c.Policy.EventCooldown = 180
	}
	if c.Policy.RSICooldown == 0 {
		c.Policy.RSICooldown = 600
	}
	if c.Policy.MomoCooldown == 0 {
		c.Policy.MomoCooldown = 900
	}
	if c.Policy.FlipBonus == 0 {
		c.Policy.FlipBonus = 0.75
	}
	if c.MaxPosUSDT == 0 {
		c.MaxPosUSDT = 200
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/quickcap.db"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !validIntervals[c.Interval] {
		return fmt.Errorf("interval must be one of 1m,3m,5m,15m,1h, got %q", c.Interval)
	}
	if len(c.Exchanges) == 0 {
		return fmt.Errorf("at least one exchange is required")
	}
	if c.Lookback < 100 {
		return fmt.Errorf("lookback must be at least 100, got %d", c.Lookback)
	}
	for _, h := range c.Outcomes.HorizonsMin {
		if h <= 0 {
			return fmt.Errorf("outcome horizons must be positive, got %d", h)
		}
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

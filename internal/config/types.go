package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Trade     TradeConfig     `mapstructure:"trade"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Market    MarketConfig    `mapstructure:"market"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// CredentialConfig 描述单个交易所的凭证。
type CredentialConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	APIPass   string `mapstructure:"api_password"`
}

// VenuesConfig 描述参与套利的交易所集合及其凭证。
type VenuesConfig struct {
	Buyers      []string                    `mapstructure:"buyers"`
	Sellers     []string                    `mapstructure:"sellers"`
	Credentials map[string]CredentialConfig `mapstructure:"credentials"`
	UseSandbox  bool                        `mapstructure:"use_sandbox"`
}

// TradeConfig 控制下单金额与外部腿执行器的调用方式。
type TradeConfig struct {
	Deposit     int    `mapstructure:"deposit"`
	MaxDeposit  int    `mapstructure:"max_deposit"`
	ScriptDir   string `mapstructure:"script_dir"`
	Interpreter string `mapstructure:"interpreter"`
}

// SignalConfig 控制信号去抖动节奏。
type SignalConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
}

// MarketConfig 控制市场符号缓存。
type MarketConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RateLimitConfig 控制对外 API 调用频率。
type RateLimitConfig struct {
	Window   time.Duration `mapstructure:"window"`
	MaxCalls int           `mapstructure:"max_calls"`
}

// RetryConfig 统一控制交易所调用重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MonitorConfig 控制监控接口。
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if len(c.Venues.Buyers) == 0 {
		err = multierr.Append(err, errors.New("venues.buyers 至少包含一个买入交易所"))
	}
	if len(c.Venues.Sellers) == 0 {
		err = multierr.Append(err, errors.New("venues.sellers 至少包含一个卖出交易所"))
	}
	if c.Trade.Deposit <= 0 {
		err = multierr.Append(err, errors.New("trade.deposit 必须大于0"))
	}
	if c.Trade.MaxDeposit <= 0 {
		err = multierr.Append(err, errors.New("trade.max_deposit 必须大于0"))
	}
	if c.Trade.Deposit > c.Trade.MaxDeposit {
		err = multierr.Append(err, errors.New("trade.deposit 不能超过 max_deposit"))
	}
	if c.Trade.ScriptDir == "" {
		err = multierr.Append(err, errors.New("trade.script_dir 不能为空"))
	}
	if c.Trade.Interpreter == "" {
		err = multierr.Append(err, errors.New("trade.interpreter 不能为空"))
	}
	if c.Signal.MinInterval <= 0 {
		err = multierr.Append(err, errors.New("signal.min_interval 必须大于0"))
	}
	if c.Market.CacheTTL <= 0 {
		err = multierr.Append(err, errors.New("market.cache_ttl 必须大于0"))
	}
	if c.RateLimit.Window <= 0 {
		err = multierr.Append(err, errors.New("ratelimit.window 必须大于0"))
	}
	if c.RateLimit.MaxCalls <= 0 {
		err = multierr.Append(err, errors.New("ratelimit.max_calls 必须大于0"))
	}
	if c.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("retry.max_attempts 必须大于0"))
	}
	if c.Retry.MinDelay <= 0 || c.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("retry.delay 必须为正"))
	}
	if c.Retry.MinDelay > c.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("retry.min_delay 不能大于 max_delay"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Monitor.Enabled && (c.Monitor.Port <= 0 || c.Monitor.Port > 65535) {
		err = multierr.Append(err, errors.New("monitor.port 必须位于[1,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}

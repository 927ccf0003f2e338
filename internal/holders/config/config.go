package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"token-holders/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ProviderRPC     = "rpc"
	ProviderMoralis = "moralis"

	// AllFamilies 适用于所有 token 的池子地址
	AllFamilies = "*"
)

// Config 定义整个配置的结构
type Config struct {
	Log       LogConfig           `mapstructure:"log"`
	Ledger    LedgerConfig        `mapstructure:"ledger"`
	Endpoints []EndpointConfig    `mapstructure:"endpoints"`
	Moralis   MoralisConfig       `mapstructure:"moralis"`
	Pools     PoolsConfig         `mapstructure:"pools"`
	View      ViewConfig          `mapstructure:"view"`
	API       APIConfig           `mapstructure:"api"`
	Monitor   MonitorConfig       `mapstructure:"monitor"`
	Families  map[string][]string `mapstructure:"families"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// LedgerConfig 链上查询配置
type LedgerConfig struct {
	Provider        string `mapstructure:"provider"`
	Network         string `mapstructure:"network"`
	MaxHolders      int    `mapstructure:"max_holders"`
	FirstTxLookups  int    `mapstructure:"first_tx_lookups"`
	FirstTxMaxPages int    `mapstructure:"first_tx_max_pages"`
	Concurrency     int    `mapstructure:"concurrency"`
	RateLimit       int    `mapstructure:"rate_limit"` // 每分钟请求次数
	Timeout         int    `mapstructure:"timeout"`    // 秒
	ProbeInterval   int    `mapstructure:"probe_interval"`
	CacheTTL        int    `mapstructure:"cache_ttl"` // 秒
}

func (l LedgerConfig) TimeoutDuration() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

func (l LedgerConfig) ProbeIntervalDuration() time.Duration {
	return time.Duration(l.ProbeInterval) * time.Second
}

func (l LedgerConfig) CacheTTLDuration() time.Duration {
	return time.Duration(l.CacheTTL) * time.Second
}

// EndpointConfig 一个具名的 RPC 节点
type EndpointConfig struct {
	Name    string            `mapstructure:"name"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type MoralisConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	RateLimit  int    `mapstructure:"rate_limit"`
	Timeout    int    `mapstructure:"timeout"`
}

// PoolsConfig 池子账户识别配置
type PoolsConfig struct {
	// Known 按 token 家族分组的已知池子地址，"*" 对所有 token 生效
	Known map[string][]string `mapstructure:"known"`
	// OffCurve 将不在 ed25519 曲线上的持有地址（PDA）视为程序账户
	OffCurve bool `mapstructure:"off_curve"`
}

type ViewConfig struct {
	RankByBalance bool `mapstructure:"rank_by_balance"`
	TableRows     int  `mapstructure:"table_rows"` // 命令行表格最多显示行数，0 为不限
}

type APIConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// SetDefaults 注册所有配置项的默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("ledger.provider", ProviderRPC)
	v.SetDefault("ledger.network", "SOLANA")
	v.SetDefault("ledger.max_holders", 1000)
	v.SetDefault("ledger.first_tx_lookups", 50)
	v.SetDefault("ledger.first_tx_max_pages", 5)
	v.SetDefault("ledger.concurrency", 8)
	v.SetDefault("ledger.rate_limit", 600)
	v.SetDefault("ledger.timeout", 30)
	v.SetDefault("ledger.probe_interval", 60)
	v.SetDefault("ledger.cache_ttl", 600)

	v.SetDefault("endpoints", []map[string]interface{}{
		{"name": "Solana Mainnet", "url": "https://api.mainnet-beta.solana.com"},
	})

	v.SetDefault("moralis.base_url", "https://deep-index.moralis.io")
	v.SetDefault("moralis.gateway_url", "https://solana-gateway.moralis.io")
	v.SetDefault("moralis.rate_limit", 300)
	v.SetDefault("moralis.timeout", 30)

	v.SetDefault("pools.known", map[string][]string{
		"pumpfun": {
			"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA", // Pump.fun AMM
		},
		AllFamilies: {
			"5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1", // Raydium AMM v4 authority
			"GpMZbSM2GgvTKHJirzeGfMFoaZ8UR2X7F4v8vHTvxFbL", // Raydium CPMM authority
		},
	})
	v.SetDefault("pools.off_curve", false)
	v.SetDefault("families", map[string][]string{
		"pumpfun": {"pump"},
	})

	v.SetDefault("view.rank_by_balance", false)
	v.SetDefault("view.table_rows", 50)

	v.SetDefault("api.listen", ":8080")
	v.SetDefault("api.read_timeout", 30)
	v.SetDefault("api.write_timeout", 120)

	v.SetDefault("monitor.enable", false)
	v.SetDefault("monitor.prometheus_addr", ":9100")
}

// Load 读取配置文件（可选）、.env 与 HOLDERS_* 环境变量
func Load(v *viper.Viper, configFile string) (Config, error) {
	var config Config

	// .env 不存在时忽略
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("HOLDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config.holders")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := decode(v, &config); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func decode(v *viper.Viper, out *Config) error {
	// 环境变量均为字符串，需要弱类型转换
	settings := v.AllSettings()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate 检查必须的配置项
func (c Config) Validate() error {
	switch c.Ledger.Provider {
	case ProviderRPC:
		if len(c.Endpoints) == 0 {
			return errors.New("config: at least one rpc endpoint is required")
		}
		for i, ep := range c.Endpoints {
			if strings.TrimSpace(ep.URL) == "" {
				return fmt.Errorf("config: endpoints[%d] has empty url", i)
			}
		}
	case ProviderMoralis:
		if c.Moralis.APIKey == "" {
			return errors.New("config: moralis.api_key is required for the moralis provider")
		}
	default:
		return fmt.Errorf("config: unknown ledger provider %q", c.Ledger.Provider)
	}
	if c.Ledger.MaxHolders <= 0 {
		return errors.New("config: ledger.max_holders must be positive")
	}
	return nil
}

// InitConfig 读取默认位置的配置，失败直接 panic
func InitConfig(configFile string) Config {
	config, err := Load(viper.GetViper(), configFile)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return config
}

// WatchConfig 配置热加载，仅同步日志级别与池子地址
func WatchConfig(config *Config, tl *zap.Logger, onChange func(Config)) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		Reload(viper.GetViper(), config, tl, onChange)
	})
}

// Reload decodes and validates v into config. An invalid config is logged
// and ignored, keeping the previous one.
func Reload(v *viper.Viper, config *Config, tl *zap.Logger, onChange func(Config)) bool {
	var newConfig Config
	if err := decode(v, &newConfig); err != nil {
		tl.Error("config reload failed, keep previous config", zap.Error(err))
		return false
	}
	if err := newConfig.Validate(); err != nil {
		tl.Error("reloaded config is invalid, keep previous config", zap.Error(err))
		return false
	}
	*config = newConfig
	logger.SetLogLevel(config.Log.Level)
	if onChange != nil {
		onChange(newConfig)
	}
	return true
}

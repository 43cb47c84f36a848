package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Contract ContractConfig `mapstructure:"contract"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	MetricsAddress    string        `mapstructure:"metrics_address"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"` // 为 0 时不检测空闲连接
	QueryTimeout      time.Duration `mapstructure:"query_timeout"`
}

// StoreConfig selects the persistence backend: badger, gorm-postgres,
// gorm-sqlite, sql-postgres or sql-sqlite.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Badger   BadgerConfig   `mapstructure:"badger"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type BadgerConfig struct {
	DataDir string `mapstructure:"data_dir"`
	GC      bool   `mapstructure:"gc"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// ContractConfig holds the settlement settings. With ConfigSource "store"
// the singleton persisted by the mutation layer wins and the values here
// only seed an empty store.
type ContractConfig struct {
	ConfigSource          string `mapstructure:"config_source"`
	AdminAddress          string `mapstructure:"admin_address"`
	GameID                string `mapstructure:"game_id"`
	PlatformFee           uint64 `mapstructure:"platform_fee"`
	TransactionFee        uint64 `mapstructure:"transaction_fee"`
	FeeWallet             string `mapstructure:"fee_wallet"`
	AddressPrefix         string `mapstructure:"address_prefix"`
	ResultTemplateAddress string `mapstructure:"result_template_address"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	ConfigSourceStore  = "store"
	ConfigSourceStatic = "static"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("server.heartbeat_interval", "30s")
	v.SetDefault("server.query_timeout", "10s")
	v.SetDefault("store.backend", "badger")
	v.SetDefault("store.badger.data_dir", "data")
	v.SetDefault("store.badger.gc", true)
	v.SetDefault("store.sqlite.path", "gamingpool.db")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("contract.config_source", ConfigSourceStore)
	v.SetDefault("contract.address_prefix", "terra")
	v.SetDefault("contract.result_template_address", "terra1t3czdl5h4w4qwgkzs80fdstj0z7rfv9v2j6uh3")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and GAMINGPOOL_* environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("gamingpool")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

type Config struct {
	Datadir        string
	Port           uint32
	LogLevel       int
	EventDbType    string
	EventDbDir     string
	LedgerType     string
	LedgerDir      string
	RedisURL       string
	ClockType      string
	EsploraURL     string
	SchedulerType  string
	SettleInterval int64
	BidMarginRule  string
	RateLimit      float64
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir        = "DATADIR"
	Port           = "PORT"
	LogLevel       = "LOG_LEVEL"
	EventDbType    = "EVENT_DB_TYPE"
	LedgerType     = "LEDGER_TYPE"
	RedisURL       = "REDIS_URL"
	ClockType      = "CLOCK_TYPE"
	EsploraURL     = "ESPLORA_URL"
	SchedulerType  = "SCHEDULER_TYPE"
	SettleInterval = "SETTLE_INTERVAL"
	BidMarginRule  = "BID_MARGIN_RULE"
	RateLimit      = "RATE_LIMIT"

	defaultDatadir        = btcutil.AppDataDir("oracled", false)
	DefaultPort           = 7171
	defaultLogLevel       = 4
	defaultEventDbType    = "badger"
	defaultLedgerType     = "sqlite"
	defaultClockType      = "unix"
	defaultEsploraURL     = "https://blockstream.info/api"
	defaultSchedulerType  = "gocron"
	defaultSettleInterval = 10
	defaultBidMarginRule  = "fractional"
	defaultRateLimit      = 20
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("ORACLE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, DefaultPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(EventDbType, defaultEventDbType)
	viper.SetDefault(LedgerType, defaultLedgerType)
	viper.SetDefault(ClockType, defaultClockType)
	viper.SetDefault(EsploraURL, defaultEsploraURL)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(SettleInterval, defaultSettleInterval)
	viper.SetDefault(BidMarginRule, defaultBidMarginRule)
	viper.SetDefault(RateLimit, defaultRateLimit)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	dbPath := filepath.Join(viper.GetString(Datadir), "db")
	if err := makeDirectoryIfNotExists(dbPath); err != nil {
		return nil, fmt.Errorf("error while creating db dir: %s", err)
	}

	return &Config{
		Datadir:        viper.GetString(Datadir),
		Port:           viper.GetUint32(Port),
		LogLevel:       viper.GetInt(LogLevel),
		EventDbType:    viper.GetString(EventDbType),
		EventDbDir:     dbPath,
		LedgerType:     viper.GetString(LedgerType),
		LedgerDir:      dbPath,
		RedisURL:       viper.GetString(RedisURL),
		ClockType:      viper.GetString(ClockType),
		EsploraURL:     viper.GetString(EsploraURL),
		SchedulerType:  viper.GetString(SchedulerType),
		SettleInterval: viper.GetInt64(SettleInterval),
		BidMarginRule:  viper.GetString(BidMarginRule),
		RateLimit:      viper.GetFloat64(RateLimit),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

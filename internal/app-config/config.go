package appconfig

import (
	"fmt"
	"strings"

	"github.com/ark-network/oracle/internal/core/application"
	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	blockclock "github.com/ark-network/oracle/internal/infrastructure/clock/block"
	unixclock "github.com/ark-network/oracle/internal/infrastructure/clock/unix"
	"github.com/ark-network/oracle/internal/infrastructure/db"
	"github.com/ark-network/oracle/internal/infrastructure/ledger"
	scheduler "github.com/ark-network/oracle/internal/infrastructure/scheduler/gocron"
	log "github.com/sirupsen/logrus"
)

var (
	supportedEventDbs = supportedType{
		"badger":    {},
		"watermill": {},
	}
	supportedLedgers = supportedType{
		"inmemory": {},
		"sqlite":   {},
		"redis":    {},
	}
	supportedClocks = supportedType{
		"unix":  {},
		"block": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedMarginRules = supportedType{
		"fractional":     {},
		"multiplicative": {},
	}
)

type Config struct {
	EventDbType    string
	EventDbDir     string
	LedgerType     string
	LedgerDir      string
	RedisURL       string
	ClockType      string
	EsploraURL     string
	SchedulerType  string
	SettleInterval int64
	MarginRule     string

	repo      ports.RepoManager
	ledger    ports.Ledger
	clock     ports.ClockService
	scheduler ports.SchedulerService
	svc       application.Service
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf("event db type not supported, please select one of: %s", supportedEventDbs)
	}
	if !supportedLedgers.supports(c.LedgerType) {
		return fmt.Errorf("ledger type not supported, please select one of: %s", supportedLedgers)
	}
	if !supportedClocks.supports(c.ClockType) {
		return fmt.Errorf("clock type not supported, please select one of: %s", supportedClocks)
	}
	if len(c.SchedulerType) > 0 && !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if len(c.MarginRule) > 0 && !supportedMarginRules.supports(c.MarginRule) {
		return fmt.Errorf("bid margin rule not supported, please select one of: %s", supportedMarginRules)
	}
	if len(c.SchedulerType) > 0 && c.SettleInterval < 1 {
		return fmt.Errorf("invalid settle interval, must be at least 1 second")
	}
	if c.LedgerType == "redis" && len(c.RedisURL) <= 0 {
		return fmt.Errorf("missing redis url, redis ledger requires ORACLE_REDIS_URL to be set")
	}
	if c.ClockType == "block" && len(c.EsploraURL) <= 0 {
		return fmt.Errorf("missing esplora url, block clock requires ORACLE_ESPLORA_URL to be set")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.ledgerService(); err != nil {
		return err
	}
	if err := c.clockService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) ClockUnit() ports.TimeUnit {
	if c.clock == nil {
		return ports.UnixTime
	}
	return c.clock.Unit()
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, log.New()}
	case "watermill":
		eventStoreConfig = []interface{}{nil, nil}
	default:
		return fmt.Errorf("unknown event db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		EventStoreConfig: eventStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) ledgerService() error {
	var ledgerConfig []interface{}

	switch c.LedgerType {
	case "inmemory":
	case "sqlite":
		ledgerConfig = []interface{}{c.LedgerDir}
	case "redis":
		ledgerConfig = []interface{}{c.RedisURL}
	default:
		return fmt.Errorf("unknown ledger type")
	}

	svc, err := ledger.NewService(c.LedgerType, ledgerConfig...)
	if err != nil {
		return err
	}

	c.ledger = svc
	return nil
}

func (c *Config) clockService() error {
	var svc ports.ClockService
	var err error
	switch c.ClockType {
	case "unix":
		svc = unixclock.NewClock()
	case "block":
		svc, err = blockclock.NewClock(c.EsploraURL, 0)
	default:
		err = fmt.Errorf("unknown clock type")
	}
	if err != nil {
		return err
	}

	c.clock = svc
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "":
		log.Info("no scheduler set, challenge resolutions are recorded on access")
	case "gocron":
		c.scheduler = scheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) appService() error {
	marginRule := c.MarginRule
	if len(marginRule) <= 0 {
		marginRule = domain.FractionalMarginRule
	}

	svc, err := application.NewService(
		c.SettleInterval, marginRule, c.clock, c.scheduler, c.repo, c.ledger,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

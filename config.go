package auction

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Persistence holds database connection options.
type Persistence struct {
	DSN                   string `env:"AUCTION_DSN" envDefault:"file::memory:?cache=shared"`
	Debug                 bool   `env:"AUCTION_DB_DEBUG"`
	PingTimeoutExpression string `env:"AUCTION_DB_PING_TIMEOUT" envDefault:"5s"`
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return time.Second * 5
	}
	return dur
}

// EnvConfig implements Config from environment variables.
type EnvConfig struct {
	AuctionDuration      time.Duration `env:"AUCTION_DURATION" envDefault:"1h"`
	ClosureRecipient     string        `env:"AUCTION_CLOSURE_RECIPIENT"`
	ClosureSubject       string        `env:"AUCTION_CLOSURE_SUBJECT" envDefault:"Auction closed"`
	NotificationsSubject string        `env:"AUCTION_NOTIFICATIONS_SUBJECT" envDefault:"auction.notifications.closure"`
	NATSURL              string        `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	Persistence          Persistence
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig loads configuration from environment variables.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse environment config")
	}
	return cfg, nil
}

func (c *EnvConfig) GetAuctionDuration() time.Duration {
	if c.AuctionDuration <= 0 {
		return DefaultAuctionDuration
	}
	return c.AuctionDuration
}

func (c *EnvConfig) GetClosureRecipient() string {
	return c.ClosureRecipient
}

func (c *EnvConfig) GetClosureSubject() string {
	if c.ClosureSubject == "" {
		return DefaultClosureSubject
	}
	return c.ClosureSubject
}

func (c *EnvConfig) GetNotificationsSubject() string {
	if c.NotificationsSubject == "" {
		return DefaultNotificationsSubject
	}
	return c.NotificationsSubject
}

func (c *EnvConfig) GetNATSURL() string {
	return c.NATSURL
}

// GetPersistence returns database connection options.
func (c *EnvConfig) GetPersistence() Persistence {
	return c.Persistence
}

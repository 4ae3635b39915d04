package restservice

import (
	"fmt"
	"net"
)

type Config struct {
	Port uint32
	// RateLimit is the number of mutation requests per second accepted from
	// a single client, 0 disables the limit.
	RateLimit float64
}

func (c Config) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit, must not be negative")
	}

	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	defer lis.Close()

	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

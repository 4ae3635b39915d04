package ports

import "github.com/ark-network/oracle/internal/core/domain"

type TimeUnit int

const (
	UnixTime TimeUnit = iota
	BlockHeight
)

func (u TimeUnit) String() string {
	if u == BlockHeight {
		return "block"
	}
	return "second"
}

type ClockService interface {
	domain.Clock

	Unit() TimeUnit
	Start() error
	Stop()
}

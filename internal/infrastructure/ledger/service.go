package ledger

import (
	"fmt"

	"github.com/ark-network/oracle/internal/core/ports"
	inmemoryledger "github.com/ark-network/oracle/internal/infrastructure/ledger/inmemory"
	redisledger "github.com/ark-network/oracle/internal/infrastructure/ledger/redis"
	sqliteledger "github.com/ark-network/oracle/internal/infrastructure/ledger/sqlite"
)

var ledgerTypes = map[string]func(...interface{}) (ports.Ledger, error){
	"inmemory": inmemoryledger.NewLedger,
	"sqlite":   sqliteledger.NewLedger,
	"redis":    redisledger.NewLedger,
}

func NewService(ledgerType string, config ...interface{}) (ports.Ledger, error) {
	factory, ok := ledgerTypes[ledgerType]
	if !ok {
		return nil, fmt.Errorf("invalid ledger type: %s", ledgerType)
	}

	svc, err := factory(config...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s ledger: %w", ledgerType, err)
	}
	return svc, nil
}

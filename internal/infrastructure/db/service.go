package db

import (
	"fmt"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	badgerdb "github.com/ark-network/oracle/internal/infrastructure/db/badger"
	watermilldb "github.com/ark-network/oracle/internal/infrastructure/db/watermill"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger":    badgerdb.NewEventRepository,
		"watermill": watermilldb.NewEventRepository,
	}
)

type ServiceConfig struct {
	EventStoreType   string
	EventStoreConfig []interface{}
}

type service struct {
	eventStore domain.EventRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid event store type: %s", config.EventStoreType)
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}

	return &service{eventStore}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Close() {
	s.eventStore.Close()
}

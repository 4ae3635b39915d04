package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "resolver-events"

type eventsDTO struct {
	Events [][]byte
}

type topicEvents struct {
	topic  string
	events []domain.Event
}

type eventRepository struct {
	store     *badgerhold.Store
	gcDone    chan struct{}
	saveLock  *sync.Mutex
	lock      *sync.Mutex
	handlers  map[string][]func(events []domain.Event)
	chUpdates chan topicEvents
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewEventRepository expects the base directory (empty for an in-memory
// store) and an optional badger.Logger.
func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}

	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, gcDone, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open resolver events store: %s", err)
	}
	repo := &eventRepository{
		store:     store,
		gcDone:    gcDone,
		saveLock:  &sync.Mutex{},
		lock:      &sync.Mutex{},
		handlers:  make(map[string][]func(events []domain.Event)),
		chUpdates: make(chan topicEvents),
		done:      make(chan struct{}),
	}
	go repo.listen()
	return repo, nil
}

func (r *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}

	r.saveLock.Lock()
	defer r.saveLock.Unlock()

	key := eventsKey(topic, id)
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		allEvents, err := r.get(tx, key)
		if err != nil {
			return err
		}
		return r.upsert(tx, key, append(allEvents, events...))
	})
	if err != nil {
		return err
	}

	r.wg.Add(1)
	go r.publishEvents(topic, events)
	return nil
}

func (r *eventRepository) Load(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	var events []domain.Event
	err := r.store.Badger().View(func(tx *badger.Txn) error {
		var err error
		events, err = r.get(tx, eventsKey(topic, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handlers[topic] = append(r.handlers[topic], handler)
}

func (r *eventRepository) ClearRegisteredHandlers(topics ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(topics) == 0 {
		r.handlers = make(map[string][]func(events []domain.Event))
		return
	}
	for _, topic := range topics {
		delete(r.handlers, topic)
	}
}

func (r *eventRepository) Close() {
	close(r.done)
	r.wg.Wait()
	close(r.gcDone)
	//nolint:errcheck
	r.store.Close()
}

func (r *eventRepository) get(tx *badger.Txn, key string) ([]domain.Event, error) {
	dto := eventsDTO{}
	if err := r.store.TxGet(tx, key, &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events with key %s: %s", key, err)
	}
	return deserializeEvents(dto.Events)
}

func (r *eventRepository) upsert(tx *badger.Txn, key string, events []domain.Event) error {
	dto, err := serializeEvents(events)
	if err != nil {
		return err
	}
	if err := r.store.TxUpsert(tx, key, dto); err != nil {
		return fmt.Errorf("failed to upsert events with key %s: %s", key, err)
	}
	return nil
}

func (r *eventRepository) listen() {
	for {
		select {
		case <-r.done:
			return
		case update := <-r.chUpdates:
			r.runHandlers(update)
		}
	}
}

func (r *eventRepository) publishEvents(topic string, events []domain.Event) {
	defer r.wg.Done()
	select {
	case <-r.done:
		return
	case r.chUpdates <- topicEvents{topic, events}:
	}
}

func (r *eventRepository) runHandlers(update topicEvents) {
	r.lock.Lock()
	handlers := append([]func(events []domain.Event){}, r.handlers[update.topic]...)
	r.lock.Unlock()

	for _, handler := range handlers {
		handler(update.events)
	}
}

func eventsKey(topic, id string) string {
	return fmt.Sprintf("%s/%s", topic, id)
}

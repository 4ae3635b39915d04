package watermilldb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/oracle/internal/core/domain"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	log "github.com/sirupsen/logrus"
)

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

type eventRepository struct {
	publisher message.Publisher
	cacheTTL  time.Duration

	subscribers    map[string][]subscriber // topic -> subscribers
	subscriberLock *sync.Mutex
	caches         map[string]*eventCache // topic -> cache
	cacheLock      *sync.Mutex
}

// NewEventRepository accepts an optional message.Publisher (an in-process
// go channel is used if nil) and the cache ttl as time.Duration.
func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}

	var publisher message.Publisher
	if config[0] != nil {
		p, ok := config[0].(message.Publisher)
		if !ok {
			return nil, fmt.Errorf("invalid publisher")
		}
		publisher = p
	} else {
		publisher = gochannel.NewGoChannel(
			gochannel.Config{}, watermill.NewStdLoggerWithOut(log.StandardLogger().Out, false, false),
		)
	}

	var ttl time.Duration
	if config[1] != nil {
		t, ok := config[1].(time.Duration)
		if !ok {
			return nil, fmt.Errorf("invalid cache ttl")
		}
		ttl = t
	}

	return NewWatermillEventRepository(publisher, ttl), nil
}

func NewWatermillEventRepository(
	publisher message.Publisher, cacheTTL time.Duration,
) domain.EventRepository {
	return &eventRepository{
		publisher:      publisher,
		cacheTTL:       cacheTTL,
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
		caches:         make(map[string]*eventCache),
		cacheLock:      &sync.Mutex{},
	}
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if len(topics) == 0 {
		e.subscribers = make(map[string][]subscriber)
		return
	}

	for _, topic := range topics {
		delete(e.subscribers, topic)
	}
}

func (e *eventRepository) Close() {
	//nolint:errcheck
	e.publisher.Close()
}

func (e *eventRepository) RegisterEventsHandler(topic string, handler func(events []domain.Event)) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (e *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}
	if err := e.publish(topic, events); err != nil {
		return err
	}

	e.cacheLock.Lock()
	defer e.cacheLock.Unlock()

	if _, ok := e.caches[topic]; !ok {
		e.caches[topic] = newEventCache(e.cacheTTL)
	}
	e.caches[topic].add(id, events)

	e.dispatch(topic, events)
	return nil
}

// Load returns the cached events only, nothing survives a restart.
func (e *eventRepository) Load(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	e.cacheLock.Lock()
	defer e.cacheLock.Unlock()

	cache, ok := e.caches[topic]
	if !ok {
		return nil, nil
	}
	return cache.get(id), nil
}

func (e *eventRepository) dispatch(topic string, events []domain.Event) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	for _, subscriber := range e.subscribers[topic] {
		go subscriber.handler(events)
	}
}

func (e *eventRepository) publish(topic string, events []domain.Event) error {
	watermillMessages, err := toWatermillMessages(events)
	if err != nil {
		return err
	}
	return e.publisher.Publish(topic, watermillMessages...)
}

func toWatermillMessages(events []domain.Event) ([]*message.Message, error) {
	watermillMessages := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event %s: %s", event.GetType(), err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("type", event.GetType().String())
		watermillMessages = append(watermillMessages, msg)
	}

	return watermillMessages, nil
}

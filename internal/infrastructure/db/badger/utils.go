package badgerdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const gcInterval = 30 * time.Minute

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, chan struct{}, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	if !isInMemory {
		ticker := time.NewTicker(gcInterval)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					err := db.Badger().RunValueLogGC(0.5)
					if err != nil && err != badger.ErrNoRewrite {
						log.WithError(err).Warn("failed to run value log gc")
					}
				}
			}
		}()
	}

	return db, done, nil
}

func serializeEvents(events []domain.Event) (*eventsDTO, error) {
	rawEvents := make([][]byte, 0, len(events))
	for _, event := range events {
		buf, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event %s: %s", event.GetType(), err)
		}
		rawEvents = append(rawEvents, buf)
	}
	return &eventsDTO{rawEvents}, nil
}

func deserializeEvents(rawEvents [][]byte) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(rawEvents))
	for _, buf := range rawEvents {
		event, err := deserializeEvent(buf)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var header struct {
		Type domain.EventType
	}
	if err := json.Unmarshal(buf, &header); err != nil {
		return nil, fmt.Errorf("failed to parse event type: %s", err)
	}

	switch header.Type {
	case domain.EventTypeManualResolverCreated:
		return decode[domain.ManualResolverCreated](buf)
	case domain.EventTypeOwnerReplaced:
		return decode[domain.OwnerReplaced](buf)
	case domain.EventTypeOutcomeSet:
		return decode[domain.OutcomeSet](buf)
	case domain.EventTypeMajorityResolverCreated:
		return decode[domain.MajorityResolverCreated](buf)
	case domain.EventTypeChallengeResolverCreated:
		return decode[domain.ChallengeResolverCreated](buf)
	case domain.EventTypeForwardPulled:
		return decode[domain.ForwardPulled](buf)
	case domain.EventTypeBidAccepted:
		return decode[domain.BidAccepted](buf)
	case domain.EventTypeChallengeResolved:
		return decode[domain.ChallengeResolved](buf)
	case domain.EventTypeWinningsWithdrawn:
		return decode[domain.WinningsWithdrawn](buf)
	default:
		return nil, fmt.Errorf("unknown event type %d", header.Type)
	}
}

func decode[T domain.Event](buf []byte) (domain.Event, error) {
	var event T
	if err := json.Unmarshal(buf, &event); err != nil {
		return nil, err
	}
	return event, nil
}

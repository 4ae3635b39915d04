package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// settleChallenges records the resolution of every challenge resolver whose
// deadline has passed, so that subscribers get notified without waiting
// for someone to touch the resolver.
func (s *service) settleChallenges() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settled := 0
	for _, entry := range s.resolvers.challenges() {
		if _, ok := entry.challenge.Settle(); ok {
			settled++
		}
		s.commit(ctx, entry)
	}

	if settled > 0 {
		log.Debugf("settled %d challenge resolvers", settled)
	}
}

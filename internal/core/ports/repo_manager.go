package ports

import "github.com/ark-network/oracle/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Close()
}

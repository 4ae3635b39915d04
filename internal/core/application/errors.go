package application

import (
	"errors"
	"fmt"
)

var (
	ErrResolverNotFound  = errors.New("resolver not found")
	ErrWrongResolverKind = errors.New("wrong resolver kind")
)

type errResolverNotFound struct {
	id string
}

func (e errResolverNotFound) Error() string {
	return fmt.Sprintf("resolver %s not found", e.id)
}

func (e errResolverNotFound) Is(target error) bool {
	return target == ErrResolverNotFound
}

type errWrongResolverKind struct {
	id       string
	kind     ResolverKind
	expected ResolverKind
}

func (e errWrongResolverKind) Error() string {
	return fmt.Sprintf("resolver %s is %s, expected %s", e.id, e.kind, e.expected)
}

func (e errWrongResolverKind) Is(target error) bool {
	return target == ErrWrongResolverKind
}

// Package resolver finds records by either of their two identifiers.
//
// Chats and documents carry a client-chosen external id and a storage-assigned
// internal id. Clients normally send the external one, but older links and
// some server-generated references carry the internal one, so lookups try the
// external id first and fall back to the internal id when the policy allows it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chatbot/internal/domain"
)

// LookupFunc fetches a record by one kind of id. It returns an error wrapping
// domain.ErrNotFound when there is no such record.
type LookupFunc[T any] func(ctx context.Context, id string) (*T, error)

// Policy decides when the internal lookup may run.
type Policy struct {
	Name string

	// InternalFallback reports whether id could be an internal id.
	InternalFallback func(id string) bool
}

// Internal ids never contain a hyphen while client UUIDs always do. Trying an
// internal lookup with a hyphenated id can only miss, and for some stores it
// fails with a malformed-id error instead.
func noHyphen(id string) bool {
	return !strings.Contains(id, "-")
}

var (
	ChatPolicy     = Policy{Name: "chat", InternalFallback: noHyphen}
	DocumentPolicy = Policy{Name: "document", InternalFallback: noHyphen}
)

// Resolver resolves an id of unknown kind to a record.
type Resolver[T any] struct {
	byExternal LookupFunc[T]
	byInternal LookupFunc[T]
	policy     Policy
	logger     *slog.Logger
}

func New[T any](byExternal, byInternal LookupFunc[T], policy Policy, logger *slog.Logger) *Resolver[T] {
	return &Resolver[T]{
		byExternal: byExternal,
		byInternal: byInternal,
		policy:     policy,
		logger:     logger,
	}
}

// Resolve returns the record for id, or an error wrapping domain.ErrNotFound.
// Failures of the external lookup other than not-found are returned as is;
// failures of the internal lookup are treated as a miss.
func (r *Resolver[T]) Resolve(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: empty id: %w", r.policy.Name, domain.ErrNotFound)
	}

	rec, err := r.byExternal(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if r.byInternal != nil && r.policy.InternalFallback != nil && r.policy.InternalFallback(id) {
		rec, err := r.byInternal(ctx, id)
		if err == nil {
			return rec, nil
		}
		r.logger.Debug("internal id lookup missed",
			"kind", r.policy.Name,
			"id", id,
			"error", err,
		)
	}

	return nil, fmt.Errorf("%s %s: %w", r.policy.Name, id, domain.ErrNotFound)
}

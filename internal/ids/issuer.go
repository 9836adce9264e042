// Package ids issues identifiers for accepted transactions.
package ids

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Issuer hands out opaque identifiers. Issue may fail.
type Issuer interface {
	Issue(ctx context.Context) (string, error)
}

// UUIDIssuer issues random v4 UUIDs.
type UUIDIssuer struct{}

// NewUUIDIssuer returns a UUIDIssuer.
func NewUUIDIssuer() UUIDIssuer {
	return UUIDIssuer{}
}

// Issue returns a new UUID string.
func (UUIDIssuer) Issue(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to issue identifier: %w", err)
	}
	return id.String(), nil
}

// NewGUID returns a local correlation id. It does not fail.
func NewGUID() string {
	return uuid.NewString()
}

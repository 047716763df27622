package planner

import (
	"fmt"
	"sync/atomic"

	"github.com/gofrs/uuid"
)

const (
	goalPrefix = "g"
	taskPrefix = "t"
)

// IDGenerator yields candidate ids. The store rejects candidates that already
// exist, so a generator only has to be unlikely to repeat.
type IDGenerator interface {
	NewID(prefix string) (string, error)
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return prefix + "-" + id.String(), nil
}

// SequenceGenerator hands out prefix-1, prefix-2, ... and is meant for tests.
type SequenceGenerator struct {
	n atomic.Uint64
}

func (g *SequenceGenerator) NewID(prefix string) (string, error) {
	return fmt.Sprintf("%s-%d", prefix, g.n.Add(1)), nil
}

// Package persistence loads and saves the planner document. A Backend moves the
// whole document in one piece; the Adapter adds seed-data fallback and logging.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

var (
	// ErrNoDocument is returned by a backend that has nothing stored yet.
	ErrNoDocument = errors.New("no stored document")
	// ErrInvalidDocument marks an import payload that fails structural validation.
	ErrInvalidDocument = errors.New("invalid data format")
	// ErrDegraded is returned by Adapter.Save while the stored document could not
	// be read, so the in-memory seed data never overwrites it.
	ErrDegraded = errors.New("stored document failed to load, refusing to overwrite it")
)

type Backend interface {
	Name() string
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

type Adapter struct {
	backend  Backend
	logger   logrus.FieldLogger
	now      func() time.Time
	degraded atomic.Bool
}

func NewAdapter(backend Backend, logger logrus.FieldLogger) *Adapter {
	return &Adapter{
		backend: backend,
		logger:  logger.WithField("backend", backend.Name()),
		now:     time.Now,
	}
}

// Load hydrates the document. Missing or unreadable storage falls back to the
// seed dataset; the error is logged, never returned. An unreadable store puts
// the adapter in degraded mode until a later Load succeeds or Replace is called.
func (a *Adapter) Load(ctx context.Context) *models.Document {
	doc, err := a.backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNoDocument):
		a.degraded.Store(false)
		a.logger.Info("no stored document, using default data")
		return DefaultDocument(a.now())
	case err != nil:
		a.degraded.Store(true)
		a.logger.WithError(err).Error("stored planner data could not be loaded; running on default data " +
			"with saves disabled until storage is readable again or data is imported")
		return DefaultDocument(a.now())
	}

	a.degraded.Store(false)
	doc.Normalize()
	doc.ReconcileGoalTasks()
	return doc
}

// Save writes doc unless the adapter is degraded.
func (a *Adapter) Save(ctx context.Context, doc *models.Document) error {
	if a.degraded.Load() {
		a.logger.Warn("save skipped, stored document was never loaded")
		return ErrDegraded
	}
	return a.write(ctx, doc)
}

// Replace overwrites storage even when degraded, as an explicit import does,
// and leaves degraded mode on success.
func (a *Adapter) Replace(ctx context.Context, doc *models.Document) error {
	if err := a.write(ctx, doc); err != nil {
		return err
	}
	if a.degraded.Swap(false) {
		a.logger.Warn("stored document replaced, saves re-enabled")
	}
	return nil
}

func (a *Adapter) write(ctx context.Context, doc *models.Document) error {
	if err := a.backend.Save(ctx, doc); err != nil {
		a.logger.WithError(err).Error("error saving data")
		return err
	}
	return nil
}

func (a *Adapter) Degraded() bool {
	return a.degraded.Load()
}

// Check reports degraded mode as an error, for health checks.
func (a *Adapter) Check(ctx context.Context) error {
	if a.degraded.Load() {
		return fmt.Errorf("%s backend: %w", a.backend.Name(), ErrDegraded)
	}
	return nil
}

func (a *Adapter) Backend() Backend {
	return a.backend
}

package repositories

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrIndexesPending is reported by IndexBuilder.Ping until every store has
// its indexes.
var ErrIndexesPending = errors.New("store indexes not yet ensured")

const (
	maxIndexRetryDelay = time.Minute
	indexBuildTimeout  = 30 * time.Second
)

type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// IndexBuilder ensures the stores' indexes, retrying with a doubling delay
// until it succeeds or its context ends. Unique constraints such as one
// profile per user depend on these indexes, so Ping fails until they exist.
type IndexBuilder struct {
	stores []Indexer
	delay  time.Duration
	logger logrus.FieldLogger
	ready  atomic.Bool
}

func NewIndexBuilder(logger logrus.FieldLogger, delay time.Duration, stores ...Indexer) *IndexBuilder {
	if delay <= 0 {
		delay = time.Second
	}
	return &IndexBuilder{stores: stores, delay: delay, logger: logger}
}

// Run blocks until all indexes are ensured or ctx is done.
func (b *IndexBuilder) Run(ctx context.Context) error {
	delay := b.delay
	for attempt := 1; ; attempt++ {
		err := b.ensureAll(ctx)
		if err == nil {
			b.ready.Store(true)
			b.logger.WithField("attempt", attempt).Info("Store indexes ensured")
			return nil
		}

		b.logger.WithFields(logrus.Fields{
			"attempt":  attempt,
			"retry_in": delay.String(),
		}).WithError(err).Warn("Could not ensure indexes")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxIndexRetryDelay {
			delay = maxIndexRetryDelay
		}
	}
}

// ensureAll tries every store so one slow collection does not hold back the
// others. Index creation is idempotent, so repeating done stores is harmless.
func (b *IndexBuilder) ensureAll(ctx context.Context) error {
	var errs []error
	for _, s := range b.stores {
		sctx, cancel := context.WithTimeout(ctx, indexBuildTimeout)
		err := s.EnsureIndexes(sctx)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *IndexBuilder) Ping(context.Context) error {
	if !b.ready.Load() {
		return ErrIndexesPending
	}
	return nil
}

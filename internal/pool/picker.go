package pool

import (
	"context"
	"dbuilder/internal/metrics"
	"dbuilder/internal/types"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// Generator produces candidate names. Candidates may collide with names already in use.
type Generator interface {
	Generate() string
}

var (
	errCollision = errors.New("generated name already in use")
	errLostRace  = errors.New("usable name taken by a concurrent allocation")
)

// Picker hands out one name per call: from the usable pool when it has any, otherwise a freshly generated one.
// Attempts are bounded by MaxAttempts and paced with exponential backoff; running out of attempts yields
// types.ErrExhausted.
type Picker struct {
	alloc *Allocator
	gen   Generator

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewPicker(alloc *Allocator, gen Generator, cfg types.Config) *Picker {
	return &Picker{
		alloc:       alloc,
		gen:         gen,
		maxAttempts: cfg.MaxGenerateAttempts,
		baseDelay:   cfg.GenerateBackoffBase,
		maxDelay:    cfg.GenerateBackoffMax,
	}
}

func (p *Picker) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.baseDelay
	b.MaxInterval = p.maxDelay
	b.MaxElapsedTime = 0
	retries := p.maxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// PickName allocates a name for tenant. Each attempt first tries the usable pool; the generator is consulted
// only when that pool is empty.
func (p *Picker) PickName(ctx context.Context, tenant string) (string, error) {
	var name string
	attempts := 0
	op := func() error {
		attempts++
		n, res, err := p.alloc.allocate(ctx, tenant)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch res {
		case allocated:
			name = n
			metrics.NamesAllocated.WithLabelValues(metrics.SourcePool).Inc()
			return nil
		case lostRace:
			return errLostRace
		}

		candidate := p.gen.Generate()
		added, err := p.alloc.Add(ctx, tenant, candidate)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !added {
			metrics.NameCollisions.Inc()
			return errCollision
		}
		name = candidate
		metrics.NamesAllocated.WithLabelValues(metrics.SourceGenerated).Inc()
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"tenant":  tenant,
			"attempt": attempts,
			"wait":    wait,
		}).WithError(err).Debug("pick name: retrying")
	}

	err := backoff.RetryNotify(op, p.newBackOff(ctx), notify)
	if err == nil {
		return name, nil
	}
	if errors.Is(err, errCollision) || errors.Is(err, errLostRace) {
		metrics.NamesExhausted.Inc()
		log.WithFields(log.Fields{"tenant": tenant, "attempts": attempts}).Warn("pick name: attempts exhausted")
		return "", types.Err(types.ErrExhausted, err, "no name after %d attempts for tenant %s", attempts, tenant)
	}
	return "", err
}

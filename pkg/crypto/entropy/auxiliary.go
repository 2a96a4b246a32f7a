package entropy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yapishu/up8-ticket/pkg/secure"
)

const (
	DefaultAuxiliaryTimeout = 10 * time.Second

	// DefaultSampleFactor bounds the number of samples drawn, as a multiple
	// of the samples actually needed.
	DefaultSampleFactor = 64
)

// Sampler returns one byte of raw timing material.
type Sampler func() byte

// Auxiliary gathers entropy from scheduling and timer jitter. Consecutive
// identical samples are discarded, so a clock too coarse to jitter runs into
// the sample bound instead of producing constant output.
type Auxiliary struct {
	Timeout time.Duration
	// MaxSamples caps the samples drawn for one collection. Zero means
	// DefaultSampleFactor times the samples needed.
	MaxSamples int
	Sampler    Sampler
	Logger     *slog.Logger
}

func NewAuxiliary() *Auxiliary {
	return &Auxiliary{
		Timeout: DefaultAuxiliaryTimeout,
		Sampler: JitterSample,
	}
}

// Collection is the pending result of one auxiliary collection. It resolves
// exactly once, with either bytes or an error.
type Collection struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	result []byte
	err    error
}

func newCollection() *Collection {
	return &Collection{done: make(chan struct{}), cancel: func() {}}
}

// resolve records the outcome. Only the first call has any effect; it reports
// whether it was that call.
func (c *Collection) resolve(result []byte, err error) bool {
	won := false
	c.once.Do(func() {
		if err != nil {
			result = nil
		}
		c.result, c.err = result, err
		won = true
		close(c.done)
	})
	if !won {
		secure.Zero(result)
	}
	return won
}

// Done is closed once the collection has resolved.
func (c *Collection) Done() <-chan struct{} {
	return c.done
}

// Cancel abandons the collection. If it has not resolved yet it resolves with
// context.Canceled.
func (c *Collection) Cancel() {
	c.abandon(context.Canceled)
}

func (c *Collection) abandon(err error) {
	c.cancel()
	c.resolve(nil, fmt.Errorf("auxiliary collection cancelled: %w", err))
}

// Wait blocks until the collection resolves or ctx is done. Giving up on ctx
// cancels the collection.
func (c *Collection) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		c.abandon(ctx.Err())
		<-c.done
		return c.result, c.err
	}
}

// Collect starts gathering nbits/8 bytes in the background. The returned
// collection is resolved with ErrInvalidBitLength straight away if nbits is
// unusable.
func (a *Auxiliary) Collect(ctx context.Context, nbits int) *Collection {
	c := newCollection()

	nbytes, err := ValidateBits(nbits)
	if err != nil {
		c.resolve(nil, err)
		return c
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAuxiliaryTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	c.cancel = cancel

	go func() {
		defer cancel()
		c.resolve(a.gather(runCtx, ctx, nbytes))
	}()

	return c
}

func (a *Auxiliary) gather(runCtx, parent context.Context, nbytes int) ([]byte, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sample := a.Sampler
	if sample == nil {
		sample = JitterSample
	}

	needed := 2 * nbytes
	limit := a.MaxSamples
	if limit <= 0 {
		limit = needed * DefaultSampleFactor
	}

	started := time.Now()
	raw := make([]byte, 0, needed)
	defer secure.Zero(raw[:cap(raw)])

	var prev byte
	drawn := 0
	for len(raw) < needed {
		if err := runCtx.Err(); err != nil {
			if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: collected %d of %d samples in %s",
					ErrAuxiliaryTimeout, len(raw), needed, time.Since(started).Round(time.Millisecond))
			}
			return nil, fmt.Errorf("auxiliary collection cancelled: %w", err)
		}
		if drawn >= limit {
			return nil, fmt.Errorf("%w: sample bound of %d exceeded with %d of %d samples",
				ErrAuxiliaryTimeout, limit, len(raw), needed)
		}

		s := sample()
		drawn++
		if len(raw) > 0 && s == prev {
			continue
		}
		raw = append(raw, s)
		prev = s
	}

	logger.Debug("Auxiliary entropy collected",
		"bytes", nbytes,
		"samples", drawn,
		"discarded", drawn-needed,
		"duration", time.Since(started))

	return fold(raw), nil
}

var jitterSink atomic.Uint64

// JitterSample times a short, variable-length busy loop and returns the low
// bits of the elapsed nanoseconds.
func JitterSample() byte {
	start := time.Now()
	x := uint64(start.UnixNano())
	rounds := 32 + int(x&31)
	for i := 0; i < rounds; i++ {
		x = x*6364136223846793005 + 1442695040888963407
	}
	jitterSink.Add(x)
	d := time.Since(start)
	return byte(d) ^ byte(d>>8) ^ byte(d>>16)
}

// Package ticket generates master tickets and splits them into k-of-n share
// sets, working on codec text at the edges.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yapishu/up8-ticket/pkg/codec"
	"github.com/yapishu/up8-ticket/pkg/crypto/drbg"
	"github.com/yapishu/up8-ticket/pkg/crypto/entropy"
	"github.com/yapishu/up8-ticket/pkg/crypto/gf256"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
	"github.com/yapishu/up8-ticket/pkg/metrics"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

// MinNonceBits is the floor for the auxiliary nonce of the drbg strategy.
const MinNonceBits = 64

type SystemSource interface {
	Bytes(n int) ([]byte, error)
}

type AuxiliarySource interface {
	Collect(ctx context.Context, nbits int) *entropy.Collection
}

type Generator struct {
	System    SystemSource
	Auxiliary AuxiliarySource
	Codec     codec.Codec
	Sharer    *shamir.Sharer
	Logger    *slog.Logger
}

// New returns a generator backed by crypto/rand, timing jitter and the @q
// codec.
func New() *Generator {
	return &Generator{
		System:    entropy.NewSystem(),
		Auxiliary: entropy.NewAuxiliary(),
		Codec:     codec.Q{},
		Sharer:    shamir.NewSharer(gf256.Default()),
	}
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Generator) system() SystemSource {
	if g.System != nil {
		return g.System
	}
	return entropy.NewSystem()
}

func (g *Generator) textCodec() codec.Codec {
	if g.Codec != nil {
		return g.Codec
	}
	return codec.Q{}
}

func (g *Generator) sharer() *shamir.Sharer {
	if g.Sharer != nil {
		return g.Sharer
	}
	return shamir.NewSharer(nil)
}

func (g *Generator) GenerateSimple(nbits int, addl []byte) (string, error) {
	return g.Generate(context.Background(), Simple, nbits, addl)
}

func (g *Generator) GenerateMixed(ctx context.Context, nbits int, addl []byte) (string, error) {
	return g.Generate(ctx, Mixed, nbits, addl)
}

func (g *Generator) GenerateDRBG(ctx context.Context, nbits int, addl []byte) (string, error) {
	return g.Generate(ctx, DRBG, nbits, addl)
}

// Generate produces an encoded ticket of nbits bits.
func (g *Generator) Generate(ctx context.Context, strategy Strategy, nbits int, addl []byte) (string, error) {
	raw, err := g.Raw(ctx, strategy, nbits, addl)
	if err != nil {
		return "", err
	}
	defer secure.Zero(raw)

	return g.textCodec().Encode(raw), nil
}

// Raw is Generate without the codec step. The caller owns the returned bytes.
func (g *Generator) Raw(ctx context.Context, strategy Strategy, nbits int, addl []byte) ([]byte, error) {
	start := time.Now()

	var (
		raw []byte
		err error
	)
	switch strategy {
	case Simple:
		raw, err = g.simple(nbits, addl)
	case Mixed:
		raw, err = g.mixed(ctx, nbits, addl)
	case DRBG:
		raw, err = g.expand(ctx, nbits, addl)
	default:
		err = fmt.Errorf("unknown strategy %q", strategy)
	}

	g.record(metrics.OpGenerate, string(strategy), start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s ticket: %w", strategy, err)
	}

	g.logger().Debug("Ticket generated",
		"strategy", strategy,
		"bits", nbits,
		"additional_input", len(addl) > 0,
		"duration", time.Since(start))

	return raw, nil
}

func (g *Generator) simple(nbits int, addl []byte) ([]byte, error) {
	nbytes, err := entropy.ValidateBits(nbits)
	if err != nil {
		return nil, err
	}

	buf, err := g.system().Bytes(nbytes)
	if err != nil {
		return nil, fmt.Errorf("system entropy: %w", err)
	}
	entropy.Mix(buf, addl)
	return buf, nil
}

func (g *Generator) mixed(ctx context.Context, nbits int, addl []byte) ([]byte, error) {
	nbytes, err := entropy.ValidateBits(nbits)
	if err != nil {
		return nil, err
	}

	sys, aux, err := g.gather(ctx, nbytes, nbits)
	if err != nil {
		return nil, err
	}
	defer secure.Wipe(sys, aux)

	buf := entropy.Combine(sys, aux)
	entropy.Mix(buf, addl)
	return buf, nil
}

func (g *Generator) expand(ctx context.Context, nbits int, addl []byte) ([]byte, error) {
	nbytes, err := entropy.ValidateBits(nbits)
	if err != nil {
		return nil, err
	}
	if nbits < drbg.MinEntropyBits {
		return nil, fmt.Errorf("%w: drbg strategy needs at least %d bits, got %d",
			entropy.ErrInvalidBitLength, drbg.MinEntropyBits, nbits)
	}

	sys, nonce, err := g.gather(ctx, nbytes, NonceBits(nbits))
	if err != nil {
		return nil, err
	}
	defer secure.Wipe(sys, nonce)

	d, err := drbg.New(sys, nonce, addl)
	if err != nil {
		return nil, err
	}
	defer d.Destroy()

	return d.Generate(nbytes)
}

// NonceBits is the auxiliary nonce size used by the drbg strategy for an
// nbits ticket: half the ticket, at least MinNonceBits, rounded up to a whole
// byte.
func NonceBits(nbits int) int {
	n := nbits / 2
	if n < MinNonceBits {
		n = MinNonceBits
	}
	return (n + 7) / 8 * 8
}

// gather reads the system source and the auxiliary collector concurrently. A
// failure of either cancels the other.
func (g *Generator) gather(ctx context.Context, sysBytes, auxBits int) ([]byte, []byte, error) {
	if g.Auxiliary == nil {
		return nil, nil, fmt.Errorf("%w: no auxiliary source configured", entropy.ErrSourceUnavailable)
	}

	grp, gctx := errgroup.WithContext(ctx)

	var sys, aux []byte
	grp.Go(func() error {
		b, err := g.system().Bytes(sysBytes)
		if err != nil {
			return fmt.Errorf("system entropy: %w", err)
		}
		sys = b
		return nil
	})
	grp.Go(func() error {
		start := time.Now()
		b, err := g.Auxiliary.Collect(gctx, auxBits).Wait(gctx)
		metrics.RecordAuxiliary(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("auxiliary entropy: %w", err)
		}
		aux = b
		return nil
	})

	if err := grp.Wait(); err != nil {
		secure.Wipe(sys, aux)
		return nil, nil, err
	}
	return sys, aux, nil
}

// Share decodes a ticket and splits it into n encoded shares, any k of which
// recover it.
func (g *Generator) Share(ticketText string, n, k int) ([]string, error) {
	start := time.Now()
	out, err := g.share(ticketText, n, k)
	g.record(metrics.OpShare, "", start, err)
	if err != nil {
		return nil, err
	}

	metrics.RecordShares(len(out))
	g.logger().Debug("Ticket split", "parts", n, "threshold", k)
	return out, nil
}

func (g *Generator) share(ticketText string, n, k int) ([]string, error) {
	c := g.textCodec()

	secret, err := c.Decode(ticketText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}
	defer secure.Zero(secret)

	shares, err := g.sharer().Split(secret, shamir.Config{Parts: n, Threshold: k})
	if err != nil {
		return nil, fmt.Errorf("failed to split ticket: %w", err)
	}

	out := make([]string, len(shares))
	for i, s := range shares {
		wire := s.Bytes()
		out[i] = c.Encode(wire)
		secure.Wipe(wire, s.Data)
	}
	return out, nil
}

// Combine decodes shares and interpolates the ticket. It cannot tell whether
// enough shares were supplied.
func (g *Generator) Combine(shareTexts []string) (string, error) {
	start := time.Now()
	out, err := g.combine(shareTexts)
	g.record(metrics.OpCombine, "", start, err)
	if err != nil {
		return "", err
	}

	g.logger().Debug("Ticket reconstructed", "shares", len(shareTexts))
	return out, nil
}

func (g *Generator) combine(shareTexts []string) (string, error) {
	c := g.textCodec()

	shares, err := g.DecodeShares(shareTexts)
	if err != nil {
		return "", err
	}
	defer func() {
		for _, s := range shares {
			secure.Zero(s.Data)
		}
	}()

	secret, err := g.sharer().Combine(shares)
	if err != nil {
		return "", fmt.Errorf("failed to combine shares: %w", err)
	}
	defer secure.Zero(secret)

	return c.Encode(secret), nil
}

// DecodeShares parses encoded share text into shares.
func (g *Generator) DecodeShares(shareTexts []string) ([]shamir.Share, error) {
	c := g.textCodec()

	shares := make([]shamir.Share, 0, len(shareTexts))
	for i, text := range shareTexts {
		wire, err := c.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("failed to decode share %d: %w", i+1, err)
		}
		s, err := shamir.ParseShare(wire)
		secure.Zero(wire)
		if err != nil {
			return nil, fmt.Errorf("failed to parse share %d: %w", i+1, err)
		}
		shares = append(shares, s)
	}
	return shares, nil
}

func (g *Generator) record(op, strategy string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(op, ErrorType(err))
		g.logger().Debug("Ticket operation failed", "operation", op, "error", err)
	}
	metrics.RecordOperation(op, strategy, status, time.Since(start).Seconds())
}

// ErrorType classifies err into a short metrics label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, entropy.ErrInvalidBitLength):
		return "invalid_bit_length"
	case errors.Is(err, entropy.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, entropy.ErrAuxiliaryTimeout):
		return "auxiliary_timeout"
	case errors.Is(err, codec.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, shamir.ErrMalformedShare):
		return "malformed_share"
	case errors.Is(err, gf256.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

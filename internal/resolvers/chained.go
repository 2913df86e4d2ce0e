package resolvers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jroosing/triedns/internal/dns"
)

// Chained tries resolvers in order. Only ErrLookupMiss moves resolution to the
// next resolver; any other error ends the chain, so a forwarding failure is
// never masked by a later resolver.
type Chained struct {
	Resolvers []Resolver
}

// Resolve returns the first answer in the chain. When every resolver misses,
// the result is ErrLookupMiss.
func (c *Chained) Resolve(ctx context.Context, req dns.Message, reqBytes []byte) (Result, error) {
	for _, r := range c.Resolvers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := r.Resolve(ctx, req, reqBytes)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, ErrLookupMiss):
			continue
		default:
			return Result{}, err
		}
	}
	return Result{}, fmt.Errorf("%w: no resolver answered", ErrLookupMiss)
}

// Close closes every resolver and joins their errors.
func (c *Chained) Close() error {
	var errs []error
	for _, r := range c.Resolvers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

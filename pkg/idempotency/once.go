package idempotency

import (
	"context"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

// HeaderKey is the request header carrying a client chosen idempotency key.
const HeaderKey = "Idempotency-Key"

// Once runs fn at most once per key and remembers its result. A repeat
// returns the remembered result with replayed set; a repeat while the first
// call is still running is a Conflict. A failed call releases the key so the
// client may retry. An empty key runs fn unguarded.
func Once(ctx context.Context, k Keeper, key string, fn func(context.Context) (string, error)) (result string, replayed bool, err error) {
	if key == "" {
		result, err = fn(ctx)
		return result, false, err
	}

	state, prev, err := k.Claim(ctx, key)
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindStorage, "idempotency claim: "+err.Error(), err)
	}
	switch state {
	case Done:
		return prev, true, nil
	case InFlight:
		return "", false, apperr.Conflict("a request with this idempotency key is still in progress")
	}

	result, err = fn(ctx)
	if err != nil {
		if rerr := k.Release(ctx, key); rerr != nil {
			return "", false, apperr.Wrap(apperr.KindStorage, "idempotency release: "+rerr.Error(), rerr)
		}
		return "", false, err
	}
	if err := k.Complete(ctx, key, result); err != nil {
		return result, false, apperr.Wrap(apperr.KindStorage, "idempotency complete: "+err.Error(), err)
	}
	return result, false, nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnavailable marks a transient storage failure (network, timeout,
// server selection). Services surface it as a 503, distinct from any
// business-rule rejection.
var ErrUnavailable = errors.New("storage unavailable")

// MapError tags transient driver failures with ErrUnavailable and passes
// every other error through untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// Package verification issues short-lived one-time codes that a guest must
// echo back before booking.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

var (
	ErrCodeMismatch = errors.New("verification code does not match")
	// ErrCodeExpired also covers codes that were never issued or were
	// already used; the stores cannot tell these apart.
	ErrCodeExpired = errors.New("verification code expired or not issued")
	// ErrTooManyAttempts is returned by the wrong guess that burns the code.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

const (
	DefaultTTL = 10 * time.Minute
	// MaxAttempts is how many wrong codes a pending code survives, minus one.
	MaxAttempts = 5
)

// Store keeps one pending code per (scope, email). Issuing again replaces the
// previous code and resets its attempts. The MaxAttempts-th wrong code deletes
// the pending code. Implementations are safe for concurrent use.
type Store interface {
	Issue(ctx context.Context, scope, email string) (code string, expiresAt time.Time, err error)
	Consume(ctx context.Context, scope, email, code string) error
}

func storeKey(scope, email string) string {
	return scope + ":" + strings.ToLower(strings.TrimSpace(email))
}

// NewCode returns a zero-padded six digit code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

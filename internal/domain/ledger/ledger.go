// Package ledger defines the ports the escrow engine runs against: persistent
// key-value storage, wall-clock/sequence time, caller authorization and
// settlement-asset transfers. Implementations live under internal/infra.
package ledger

import (
	"context"
	"time"

	"billvault/internal/domain/billing"

	"github.com/shopspring/decimal"
)

// Store is a persistent key -> value map. Values are encoded by the
// implementation (JSON for the Postgres and in-memory stores); Get decodes
// into out and reports whether the key was present. ExtendTTL must be called
// after reads and writes of long-lived records to keep them from expiring.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	ExtendTTL(ctx context.Context, key string) error
}

// Clock supplies the current time and a monotonically increasing sequence
// number used for admin-transfer expiry comparisons.
type Clock interface {
	Now() time.Time
	Sequence() uint64
}

// Authorizer proves that the current call was approved by a principal.
// RequireAuth returns billing.ErrUnauthorized when the proof is absent.
type Authorizer interface {
	RequireAuth(ctx context.Context, principal billing.Identity) error
}

// TokenClient moves settlement-asset value between accounts. Transfers are
// atomic: either the full amount moves or the balances are untouched.
type TokenClient interface {
	Transfer(ctx context.Context, from, to billing.Identity, amount decimal.Decimal) error
}

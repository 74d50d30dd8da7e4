// Package app hosts the escrow engine: cycle and bill lifecycle management,
// fee and access control, and the accounting invariants tying them together.
// The engine is storage-, clock-, and transport-agnostic; it runs against the
// ports defined in internal/domain/ledger.
package app

import (
	"billvault/internal/domain/billing"
	"billvault/internal/domain/ledger"
)

// Engine implements the full escrow operation surface. All state lives in the
// injected Store; the Engine itself is stateless and safe to share.
type Engine struct {
	store   ledger.Store
	clock   ledger.Clock
	auth    ledger.Authorizer
	token   ledger.TokenClient
	events  billing.Publisher
	custody billing.Identity // the engine's own escrow account
}

func NewEngine(
	store ledger.Store,
	clock ledger.Clock,
	auth ledger.Authorizer,
	token ledger.TokenClient,
	events billing.Publisher,
	custody billing.Identity,
) *Engine {
	return &Engine{
		store:   store,
		clock:   clock,
		auth:    auth,
		token:   token,
		events:  events,
		custody: custody,
	}
}

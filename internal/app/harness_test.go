package app

import (
	"context"
	"testing"
	"time"

	"billvault/internal/domain/billing"
	"billvault/internal/infra/auth"
	"billvault/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testAdmin   = billing.Identity("GADMIN")
	testUser    = billing.Identity("GUSER")
	testOther   = billing.Identity("GOTHER")
	testAsset   = billing.Identity("CUSDC")
	testCustody = billing.Identity("CVAULT")
)

type fakeClock struct {
	now time.Time
	seq uint64
}

func (c *fakeClock) Now() time.Time   { return c.now }
func (c *fakeClock) Sequence() uint64 { return c.seq }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) setUnix(ts int64)        { c.now = time.Unix(ts, 0).UTC() }

type transfer struct {
	from, to billing.Identity
	amount   decimal.Decimal
}

// fakeToken records transfers and can be primed to fail the next one.
type fakeToken struct {
	transfers []transfer
	failNext  error
}

func (t *fakeToken) Transfer(_ context.Context, from, to billing.Identity, amount decimal.Decimal) error {
	if t.failNext != nil {
		err := t.failNext
		t.failNext = nil
		return err
	}
	t.transfers = append(t.transfers, transfer{from: from, to: to, amount: amount})
	return nil
}

func (t *fakeToken) last() transfer {
	return t.transfers[len(t.transfers)-1]
}

type eventRecorder struct {
	events []billing.Event
}

func (r *eventRecorder) Publish(_ context.Context, event billing.Event) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) names() []string {
	names := make([]string, len(r.events))
	for i, event := range r.events {
		names[i] = event.EventName()
	}
	return names
}

type fixture struct {
	engine *Engine
	store  *database.MemoryStore
	clock  *fakeClock
	token  *fakeToken
	events *eventRecorder
}

// newFixture builds an initialized engine over an in-memory store with the
// clock pinned to 2025-03-10 12:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  database.NewMemoryStore(),
		clock:  &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), seq: 100},
		token:  &fakeToken{},
		events: &eventRecorder{},
	}
	f.engine = NewEngine(f.store, f.clock, auth.NewContextAuthorizer(), f.token, f.events, testCustody)

	require.NoError(t, f.engine.Initialize(as(testAdmin), testAdmin, testAsset))
	return f
}

// as returns a context proving identity approved the call.
func as(identity billing.Identity) context.Context {
	return auth.WithActor(context.Background(), identity)
}

func amt(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// createCycle is a shorthand for the common "user opens a cycle" setup.
func (f *fixture) createCycle(t *testing.T, months uint32, amount int64) uint64 {
	t.Helper()
	cycleID, err := f.engine.CreateCycle(as(testUser), testUser, months, amt(amount))
	require.NoError(t, err)
	return cycleID
}

// addBill persists a single non-recurring bill due in 10 days and returns its ID.
func (f *fixture) addBill(t *testing.T, cycleID uint64, amount int64) uint64 {
	t.Helper()
	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{{
		Name:     "electricity",
		Amount:   amt(amount),
		DueDate:  f.clock.Now().Unix() + 10*secondsPerDay,
		Category: billing.CategoryUtilities,
	}})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

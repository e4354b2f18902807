// Package session gives every storefront shopper their own cart and at most
// one checkout in progress.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/errkind"
	"github.com/xenking/storefront/internal/domain/order"
)

// ErrNoCheckout is returned by checkout operations before a checkout was
// started or after it was submitted.
var ErrNoCheckout = errkind.Validation(errors.New("no checkout in progress"))

// FlowFactory starts a new checkout flow.
type FlowFactory func() *checkout.Flow

// Session owns one Cart Store and at most one checkout flow.
type Session struct {
	ID string

	mu       sync.Mutex
	cart     *cart.Store
	flow     *checkout.Flow
	newFlow  FlowFactory
	lastSeen time.Time
}

// State is the session content handed to Session.Do.
type State struct {
	s *Session
}

// Cart returns the session's cart.
func (st State) Cart() *cart.Store { return st.s.cart }

// Checkout returns the checkout in progress, if any.
func (st State) Checkout() (*checkout.Flow, error) {
	if st.s.flow == nil {
		return nil, ErrNoCheckout
	}
	return st.s.flow, nil
}

// BeginCheckout returns the checkout in progress or starts a new one. A
// checkout needs something in the cart.
func (st State) BeginCheckout() (*checkout.Flow, error) {
	if st.s.flow != nil {
		return st.s.flow, nil
	}
	if st.s.cart.Empty() {
		return nil, order.ErrEmptyCart
	}
	st.s.flow = st.s.newFlow()
	return st.s.flow, nil
}

// DiscardCheckout drops the checkout in progress.
func (st State) DiscardCheckout() { st.s.flow = nil }

// PlaceOrder submits the checkout in progress. On success the cart is
// cleared and the checkout discarded; on failure both stay as they were.
func (st State) PlaceOrder(ctx context.Context, orders *order.Service) (*order.Order, error) {
	f, err := st.Checkout()
	if err != nil {
		return nil, err
	}
	o, err := orders.Submit(ctx, st.s.cart, f)
	if err != nil {
		return nil, err
	}
	st.s.flow = nil
	return o, nil
}

// Do runs fn with exclusive access to the session. Operations on one
// session are serialized, so a second submit waits for the first and then
// finds no checkout.
func (s *Session) Do(fn func(State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(State{s: s})
}

// Registry keeps sessions in memory and expires idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	newFlow  FlowFactory
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a Registry whose sessions expire after ttl of
// inactivity. A ttl of zero disables expiry.
func NewRegistry(newFlow FlowFactory, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		newFlow:  newFlow,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the live session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		return nil, false
	}
	s.lastSeen = r.now()
	return s, true
}

// GetOrCreate returns the live session with the given id, or a new session
// under a fresh id when there is none. created reports the latter.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && !r.expired(s) {
		s.lastSeen = r.now()
		return s, false
	}
	s = &Session{
		ID:       uuid.NewString(),
		cart:     cart.NewStore(),
		newFlow:  r.newFlow,
		lastSeen: r.now(),
	}
	r.sessions[s.ID] = s
	return s, true
}

// Len returns the number of stored sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					zctx.From(ctx).Debug("Expired sessions removed", zap.Int("count", n))
				}
			}
		}
	}()
}

func (r *Registry) expired(s *Session) bool {
	return r.ttl > 0 && r.now().Sub(s.lastSeen) > r.ttl
}

package cart

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	domcart "example.com/stylino-storefront/internal/domain/cart"
	"example.com/stylino-storefront/internal/metrics"
	"example.com/stylino-storefront/pkg/logger"
)

// SlotRepository is where sessions read and write their cart slots.
type SlotRepository interface {
	domcart.SlotRepository
}

// Service keeps one open Session per storage slot. A slot is read from the
// repository once when its session opens; afterwards the in-memory cart is
// authoritative and every mutation is written back in full.
//
// Callers pair every Open with a Release. A session that falls out of the
// cache while still held moves to detached and is handed back by the next
// Open, so a slot never has two writers.
type Service struct {
	repo    SlotRepository
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions *lru.Cache
	detached map[string]*Session
}

// NewService builds a Service holding at most cacheSize idle sessions.
func NewService(repo SlotRepository, cacheSize int, m *metrics.Metrics) (*Service, error) {
	s := &Service{repo: repo, metrics: m, detached: make(map[string]*Session)}
	// Every cache call is made with s.mu held, so the callback may touch
	// s.detached and sess.refs but must not lock s.mu.
	cache, err := lru.NewWithEvict(cacheSize, func(key, value interface{}) {
		sess := value.(*Session)
		if sess.refs > 0 {
			s.detached[sess.key] = sess
			return
		}
		s.metrics.SessionClosed()
	})
	if err != nil {
		return nil, err
	}
	s.sessions = cache
	return s, nil
}

// Open returns the session for key, rehydrating it from the repository if it
// is not already held. Storage problems never surface here: a missing,
// unreadable or corrupt slot yields an empty cart.
func (s *Service) Open(ctx context.Context, key string) *Session {
	s.mu.Lock()
	if sess := s.acquire(key); sess != nil {
		s.mu.Unlock()
		return sess
	}
	s.mu.Unlock()

	loaded := s.rehydrate(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.acquire(key); sess != nil {
		return sess
	}
	sess := &Session{key: key, repo: s.repo, metrics: s.metrics, cart: loaded, refs: 1}
	s.sessions.Add(key, sess)
	s.metrics.SessionOpened()
	return sess
}

// acquire must be called with s.mu held.
func (s *Service) acquire(key string) *Session {
	if v, ok := s.sessions.Get(key); ok {
		sess := v.(*Session)
		sess.refs++
		return sess
	}
	if sess, ok := s.detached[key]; ok {
		delete(s.detached, key)
		sess.refs++
		s.sessions.Add(key, sess)
		return sess
	}
	return nil
}

// Release gives back a session obtained from Open.
func (s *Service) Release(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.refs > 0 {
		sess.refs--
	}
	if sess.refs == 0 && s.detached[sess.key] == sess {
		delete(s.detached, sess.key)
		s.metrics.SessionClosed()
	}
}

func (s *Service) rehydrate(ctx context.Context, key string) *domcart.Cart {
	payload, err := s.repo.Load(ctx, key)
	if errors.Is(err, domcart.ErrSlotNotFound) {
		return domcart.New()
	}
	if err != nil {
		s.metrics.SlotFailure("load")
		logger.Error(err, "cart slot load failed, starting empty", map[string]interface{}{"slot": key})
		return domcart.New()
	}

	items, err := domcart.DecodeItems(payload)
	if err != nil {
		s.metrics.SlotFailure("decode")
		logger.Warn("discarding unreadable cart slot", map[string]interface{}{
			"slot":  key,
			"error": err.Error(),
		})
		return domcart.New()
	}
	return domcart.FromItems(items)
}

// Close drops the in-memory session. The slot itself is left untouched, and a
// session still held by a caller lives on until it is released.
func (s *Service) Close(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(key)
}

// Shutdown forgets every session. Slots already hold the latest state.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Purge()
	s.detached = make(map[string]*Session)
}

// Len is the number of sessions in the cache.
func (s *Service) Len() int {
	return s.sessions.Len()
}

// Session is the single writer for one slot.
type Session struct {
	key     string
	repo    SlotRepository
	metrics *metrics.Metrics

	// refs is guarded by Service.mu.
	refs int

	mu          sync.Mutex
	cart        *domcart.Cart
	checkingOut bool
}

// Key is the slot this session writes to.
func (s *Session) Key() string {
	return s.key
}

// AddItem, DecrementItem, RemoveItem, Clear and Settle apply one cart
// operation, write the slot through and return the resulting view.
func (s *Session) AddItem(ctx context.Context, in domcart.ProductInput, quantity int64) domcart.View {
	return s.mutate(ctx, "add", func(c *domcart.Cart) { c.AddItem(in, quantity) })
}

func (s *Session) DecrementItem(ctx context.Context, productID int64) domcart.View {
	return s.mutate(ctx, "decrement", func(c *domcart.Cart) { c.DecrementItem(productID) })
}

func (s *Session) RemoveItem(ctx context.Context, productID int64) domcart.View {
	return s.mutate(ctx, "remove", func(c *domcart.Cart) { c.RemoveItem(productID) })
}

func (s *Session) Clear(ctx context.Context) domcart.View {
	return s.mutate(ctx, "clear", func(c *domcart.Cart) { c.Clear() })
}

// Settle takes an ordered snapshot out of the cart, leaving anything added
// while the order was being placed.
func (s *Session) Settle(ctx context.Context, ordered []domcart.LineItem) domcart.View {
	return s.mutate(ctx, "checkout", func(c *domcart.Cart) { c.Subtract(ordered) })
}

// View returns the current cart without touching the slot.
func (s *Session) View() domcart.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.View()
}

// BeginCheckout marks the session as submitting. It reports false when a
// checkout is already running for this session.
func (s *Session) BeginCheckout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return false
	}
	s.checkingOut = true
	return true
}

// EndCheckout clears the mark set by BeginCheckout.
func (s *Session) EndCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkingOut = false
}

func (s *Session) mutate(ctx context.Context, op string, apply func(*domcart.Cart)) domcart.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply(s.cart)
	s.metrics.CartMutation(op)
	s.persist(ctx, op)
	return s.cart.View()
}

// persist must be called with s.mu held. A failed write leaves the in-memory
// cart as it is; the next successful mutation rewrites the whole slot.
func (s *Session) persist(ctx context.Context, op string) {
	payload, err := domcart.Encode(s.cart.Items())
	if err != nil {
		s.metrics.SlotFailure("encode")
		logger.Error(err, "cart encode failed", map[string]interface{}{"slot": s.key, "op": op})
		return
	}
	if err := s.repo.Save(ctx, s.key, payload); err != nil {
		s.metrics.SlotFailure("save")
		logger.Error(err, "cart slot save failed", map[string]interface{}{"slot": s.key, "op": op})
	}
}

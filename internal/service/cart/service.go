package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"perle-storefront/internal/domain"
	cartrepo "perle-storefront/internal/repository/cart"
)

// StorageKeyPrefix namespaces visitor carts in the durable store.
const StorageKeyPrefix = "perle-cart:"

type Service struct {
	repo   cartRepo
	logger *log.Logger
	newID  func() string

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock serializes one visitor's cart. refs counts holders and waiters; the entry is
// dropped when it reaches zero.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

type cartRepo interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

func New(repo cartrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger, locks: make(map[string]*keyLock)}
}

// View is the read model returned to clients.
type View struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"totalItems"`
	TotalPrice int64             `json:"totalPrice"`
}

// AddChildInput describes a child line added below an existing line.
type AddChildInput struct {
	Item     domain.CartLine `json:"item"`
	Quantity int             `json:"quantity"`
}

func (s *Service) Get(ctx context.Context, visitorID string) (*View, error) {
	var view *View
	err := s.withCart(ctx, visitorID, false, func(agg *Aggregate) error {
		view = viewOf(agg)
		return nil
	})
	return view, err
}

func (s *Service) AddItem(ctx context.Context, visitorID string, item domain.CartLine) (*View, error) {
	var view *View
	err := s.withCart(ctx, visitorID, true, func(agg *Aggregate) error {
		agg.AddItem(item)
		view = viewOf(agg)
		return nil
	})
	return view, err
}

func (s *Service) AddChildItem(ctx context.Context, visitorID, parentLineID string, in AddChildInput) (*View, error) {
	var view *View
	err := s.withCart(ctx, visitorID, true, func(agg *Aggregate) error {
		if _, err := agg.AddChildItem(parentLineID, in.Item, in.Quantity); err != nil {
			return err
		}
		view = viewOf(agg)
		return nil
	})
	return view, err
}

func (s *Service) RemoveItem(ctx context.Context, visitorID, lineID string) (*View, error) {
	var view *View
	err := s.withCart(ctx, visitorID, true, func(agg *Aggregate) error {
		agg.RemoveItem(lineID)
		view = viewOf(agg)
		return nil
	})
	return view, err
}

func (s *Service) UpdateQuantity(ctx context.Context, visitorID, lineID string, quantity int) (*View, error) {
	var view *View
	err := s.withCart(ctx, visitorID, true, func(agg *Aggregate) error {
		agg.UpdateQuantity(lineID, quantity)
		view = viewOf(agg)
		return nil
	})
	return view, err
}

// Clear empties the visitor cart.
func (s *Service) Clear(ctx context.Context, visitorID string) error {
	return s.withCart(ctx, visitorID, true, func(agg *Aggregate) error {
		agg.Clear()
		return nil
	})
}

// OrderLines snapshots the cart as checkout order lines.
func (s *Service) OrderLines(ctx context.Context, visitorID string) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := s.withCart(ctx, visitorID, false, func(agg *Aggregate) error {
		lines = agg.OrderLines()
		return nil
	})
	return lines, err
}

// withCart loads the cart, runs fn and, when persist is set and fn succeeded, writes the
// result back. Calls for the same visitor are serialized.
func (s *Service) withCart(ctx context.Context, visitorID string, persist bool, fn func(*Aggregate) error) error {
	if strings.TrimSpace(visitorID) == "" {
		return errors.New("cart key required")
	}
	key := StorageKeyPrefix + visitorID
	unlock := s.lock(key)
	defer unlock()

	agg, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if s.newID != nil {
		agg.newID = s.newID
	}
	if err := fn(agg); err != nil {
		return err
	}
	if !persist {
		return nil
	}
	return s.save(ctx, key, agg.lines)
}

func (s *Service) load(ctx context.Context, key string) (*Aggregate, error) {
	raw, err := s.repo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NewAggregate([]domain.CartLine{}), nil
		}
		return nil, err
	}
	lines, migrated, err := decodeLines(raw)
	if err != nil {
		s.logger.Printf("discarding cart %s: %v", key, err)
		empty := []domain.CartLine{}
		if err := s.save(ctx, key, empty); err != nil {
			return nil, err
		}
		return NewAggregate(empty), nil
	}
	if migrated {
		s.logger.Printf("migrated legacy cart %s", key)
		if err := s.save(ctx, key, lines); err != nil {
			return nil, err
		}
	}
	return NewAggregate(lines), nil
}

func (s *Service) save(ctx context.Context, key string, lines []domain.CartLine) error {
	payload, err := encodeLines(lines)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, key, payload)
}

func (s *Service) lock(key string) (unlock func()) {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*keyLock)
	}
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

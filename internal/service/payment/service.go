package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"perle-storefront/internal/backend"
	"perle-storefront/internal/domain"
	sessionrepo "perle-storefront/internal/repository/session"
)

type checkoutBackend interface {
	CreateCheckout(ctx context.Context, in backend.CreateCheckoutRequest) (*backend.CreateCheckoutResponse, error)
	GetOrderStatus(ctx context.Context, reference string) (*domain.OrderStatus, error)
}

type cartStore interface {
	OrderLines(ctx context.Context, visitorID string) ([]domain.OrderLine, error)
	Clear(ctx context.Context, visitorID string) error
}

// Service runs checkout creation, result polling and success confirmation.
type Service struct {
	backend  checkoutBackend
	sessions sessionrepo.Repository
	carts    cartStore
	poller   *Poller
	currency string
	logger   *log.Logger
	now      func() time.Time
}

// Options configures Service.
type Options struct {
	Currency     string
	PollInterval time.Duration
	PollTimeout  time.Duration
	Logger       *log.Logger
}

func New(b checkoutBackend, sessions sessionrepo.Repository, carts cartStore, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	currency := strings.TrimSpace(opts.Currency)
	if currency == "" {
		currency = "NOK"
	}
	return &Service{
		backend:  b,
		sessions: sessions,
		carts:    carts,
		poller:   NewPoller(b, opts.PollInterval, opts.PollTimeout, logger),
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// Result is the terminal outcome of AwaitResult.
type Result struct {
	Reference string
	State     State
	Reason    Reason
}

// Summary is what the success page shows; it is always read fresh from the backend.
type Summary struct {
	Reference     string `json:"reference"`
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	TotalAmount   *int64 `json:"totalAmount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// StartCheckout submits the visitor cart to the backend and records the session. On error
// the flow ended in failed_to_start and the cart is untouched.
func (s *Service) StartCheckout(ctx context.Context, visitorID string) (*domain.PaymentSession, error) {
	flow := NewFlow()

	lines, err := s.carts.OrderLines(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	resp, err := s.backend.CreateCheckout(ctx, backend.CreateCheckoutRequest{OrderLines: lines, Currency: s.currency})
	if err != nil {
		flow, _ = flow.Next(Event{Kind: EventSessionFailed})
		s.logger.Printf("checkout for %s: %s: %v", visitorID, flow.State, err)
		return nil, err
	}

	if flow, err = flow.Next(Event{Kind: EventSessionCreated, Reference: resp.Reference}); err != nil {
		return nil, err
	}
	// The caller redirects to the checkout URL right after this returns.
	if flow, err = flow.Next(Event{Kind: EventRedirected}); err != nil {
		return nil, err
	}

	session := domain.PaymentSession{
		Reference:   resp.Reference,
		CartKey:     visitorID,
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNumber,
		CheckoutURL: resp.CheckoutURL,
		Currency:    s.currency,
		OrderLines:  lines,
		State:       string(flow.State),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session %s: %w", resp.Reference, err)
	}
	s.logger.Printf("checkout %s created for order %s", resp.Reference, resp.OrderNumber)
	return &session, nil
}

// AwaitResult polls the backend for reference until the payment is resolved or the poll
// budget is spent. Cancelling ctx stops polling and returns ctx.Err().
func (s *Service) AwaitResult(ctx context.Context, reference string) (*Result, error) {
	if err := ValidateReference(reference); err != nil {
		return nil, err
	}

	flow := Resume(reference)
	if sess, err := s.sessions.Get(ctx, reference); err == nil && State(sess.State) == StateAwaitingExternal {
		returned, err := Flow{State: StateAwaitingExternal, Reference: reference}.Next(Event{Kind: EventReturned})
		if err == nil {
			flow = returned
		}
	}

	flow, err := s.poller.Run(ctx, flow)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateState(ctx, reference, string(flow.State), string(flow.Reason)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Printf("update session %s: %v", reference, err)
	}
	if flow.State == StateSuccess {
		if err := s.clearCartOnce(ctx, reference); err != nil {
			s.logger.Printf("clear cart for %s: %v", reference, err)
		}
	}
	return &Result{Reference: reference, State: flow.State, Reason: flow.Reason}, nil
}

// Confirm re-reads the order for the success page. It never replays side effects: the
// cart is cleared at most once per reference no matter how often this runs.
func (s *Service) Confirm(ctx context.Context, reference string) (*Summary, error) {
	if err := ValidateReference(reference); err != nil {
		return nil, err
	}
	status, err := s.backend.GetOrderStatus(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", reference, err)
	}
	if status.PaymentStatus != domain.PaymentPaid {
		return nil, domain.ErrNotPaid
	}
	if err := s.clearCartOnce(ctx, reference); err != nil {
		s.logger.Printf("clear cart for %s: %v", reference, err)
	}
	currency := status.Currency
	if currency == "" {
		currency = s.currency
	}
	return &Summary{
		Reference:     reference,
		OrderID:       status.OrderID,
		OrderNumber:   status.OrderNumber,
		TotalAmount:   status.TotalAmount,
		Currency:      currency,
		CustomerEmail: status.CustomerEmail,
	}, nil
}

func (s *Service) clearCartOnce(ctx context.Context, reference string) error {
	sess, err := s.sessions.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("no session for %s, cart left as is", reference)
			return nil
		}
		return err
	}
	if sess.CartCleared {
		return nil
	}
	won, err := s.sessions.MarkCartCleared(ctx, reference)
	if err != nil || !won {
		return err
	}
	return s.carts.Clear(ctx, sess.CartKey)
}

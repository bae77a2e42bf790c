package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"perle-storefront/internal/domain"
	cartrepo "perle-storefront/internal/repository/cart"
)

type stubRepo struct {
	data      map[string][]byte
	loadErr   error
	saveErr   error
	saveCalls int
	lastKey   string
}

func newStubRepo() *stubRepo {
	return &stubRepo{data: map[string][]byte{}}
}

func (s *stubRepo) Load(_ context.Context, key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	raw, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (s *stubRepo) Save(_ context.Context, key string, payload []byte) error {
	s.saveCalls++
	s.lastKey = key
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = payload
	return nil
}

func TestServiceGetEmpty(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	view, err := svc.Get(context.Background(), "visitor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Lines) != 0 || view.TotalItems != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
	if repo.saveCalls != 0 {
		t.Fatalf("read must not persist, got %d saves", repo.saveCalls)
	}
}

func TestServiceAddItemPersists(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	view, err := svc.AddItem(context.Background(), "visitor", kit("A", 499))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalPrice != 499 || view.TotalItems != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if repo.lastKey != "perle-cart:visitor" {
		t.Fatalf("unexpected storage key %q", repo.lastKey)
	}

	again, err := svc.Get(context.Background(), "visitor")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(again.Lines) != 1 || again.Lines[0].LineID != view.Lines[0].LineID {
		t.Fatalf("read after write did not observe write: %+v", again)
	}
}

func TestServiceRequiresCartKey(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	_, err := svc.AddItem(context.Background(), "", kit("A", 1))
	if err == nil || err.Error() != "cart key required" {
		t.Fatalf("expected cart key error, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Fatalf("expected no save, got %d", repo.saveCalls)
	}
}

func TestServiceAddChildItemParentNotFound(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	if _, err := svc.AddItem(context.Background(), "visitor", kit("A", 499)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	saves := repo.saveCalls
	_, err := svc.AddChildItem(context.Background(), "visitor", "missing", AddChildInput{Item: kit("board", 49)})
	if !errors.Is(err, domain.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if repo.saveCalls != saves {
		t.Fatalf("failed mutation must not persist")
	}
}

func TestServiceLegacyMigration(t *testing.T) {
	repo := newStubRepo()
	repo.data["perle-cart:visitor"] = []byte(`[{"productId":"A","title":"Kit","unitPrice":499,"currency":"NOK","quantity":2,"slug":"kit"},{"productId":"B","title":"Tool","unitPrice":99,"currency":"NOK","quantity":1,"slug":"tool"}]`)
	svc := New(repo, nil)

	view, err := svc.Get(context.Background(), "visitor")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(view.Lines))
	}
	for _, l := range view.Lines {
		if l.LineID == "" {
			t.Fatalf("line not migrated: %+v", l)
		}
	}
	if repo.saveCalls != 1 {
		t.Fatalf("expected migrated cart to be re-persisted once, got %d", repo.saveCalls)
	}
	var stored []domain.CartLine
	if err := json.Unmarshal(repo.data["perle-cart:visitor"], &stored); err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	if stored[0].LineID != view.Lines[0].LineID || stored[1].LineID != view.Lines[1].LineID {
		t.Fatalf("persisted ids differ from returned ids")
	}

	// Subsequent loads are already migrated.
	if _, err := svc.Get(context.Background(), "visitor"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if repo.saveCalls != 1 {
		t.Fatalf("migration repeated, saves=%d", repo.saveCalls)
	}
}

func TestServiceCorruptPayloadStartsEmpty(t *testing.T) {
	repo := newStubRepo()
	repo.data["perle-cart:visitor"] = []byte(`{not json`)
	svc := New(repo, nil)

	view, err := svc.Get(context.Background(), "visitor")
	if err != nil {
		t.Fatalf("corrupt cart must not error, got %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Lines)
	}
	if string(repo.data["perle-cart:visitor"]) != "[]" {
		t.Fatalf("expected corrupt payload replaced, got %s", repo.data["perle-cart:visitor"])
	}
}

func TestServiceLoadError(t *testing.T) {
	repo := newStubRepo()
	repo.loadErr = errors.New("boom")
	svc := New(repo, nil)
	_, err := svc.Get(context.Background(), "visitor")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "visitor", kit("A", 499))
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	lineID := view.Lines[0].LineID

	view, err = svc.UpdateQuantity(ctx, "visitor", lineID, 3)
	if err != nil || view.TotalItems != 3 || view.TotalPrice != 1497 {
		t.Fatalf("UpdateQuantity: %+v %v", view, err)
	}
	view, err = svc.RemoveItem(ctx, "visitor", lineID)
	if err != nil || len(view.Lines) != 0 {
		t.Fatalf("RemoveItem: %+v %v", view, err)
	}

	if _, err := svc.AddItem(ctx, "visitor", kit("B", 199)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.Clear(ctx, "visitor"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	view, _ = svc.Get(ctx, "visitor")
	if len(view.Lines) != 0 {
		t.Fatalf("expected cleared cart, got %+v", view.Lines)
	}
}

func TestServiceOrderLines(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "visitor", kit("A", 499)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	lines, err := svc.OrderLines(ctx, "visitor")
	if err != nil {
		t.Fatalf("OrderLines: %v", err)
	}
	if len(lines) != 1 || lines[0].UnitPrice != 49900 {
		t.Fatalf("unexpected order lines %+v", lines)
	}
}

func TestServiceReleasesVisitorLocks(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if _, err := svc.Get(ctx, fmt.Sprintf("visitor-%08d", i)); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if n := len(svc.locks); n != 0 {
		t.Fatalf("expected no retained locks after distinct visits, got %d", n)
	}
}

func TestServiceSerializesSameVisitor(t *testing.T) {
	svc := New(cartrepo.NewMemory(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			visitor := "shared"
			if i%2 == 1 {
				visitor = fmt.Sprintf("other-%d", i)
			}
			if _, err := svc.AddItem(ctx, visitor, kit("A", 10)); err != nil {
				t.Errorf("AddItem: %v", err)
			}
		}(i)
	}
	wg.Wait()

	view, err := svc.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.TotalItems != 25 {
		t.Fatalf("expected 25 merged adds, got %d", view.TotalItems)
	}
	svc.mu.Lock()
	n := len(svc.locks)
	svc.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected no retained locks, got %d", n)
	}
}

package seed

import (
	"context"
	"fmt"

	"perle-storefront/internal/domain"
	cartsvc "perle-storefront/internal/service/cart"
)

// DemoVisitor is the cart key seeded for manual testing. Send it as X-Cart-Key.
const DemoVisitor = "demo-visitor-0001"

type cartWriter interface {
	Clear(ctx context.Context, visitorID string) error
	AddItem(ctx context.Context, visitorID string, item domain.CartLine) (*cartsvc.View, error)
	AddChildItem(ctx context.Context, visitorID, parentLineID string, in cartsvc.AddChildInput) (*cartsvc.View, error)
}

type kitSeed struct {
	Product domain.CartLine
	Boards  []domain.CartLine
}

var demoKits = []kitSeed{
	{
		Product: domain.CartLine{
			ProductID:      "kit-hama-start",
			Title:          "Startsett perler",
			UnitPrice:      499,
			Currency:       "NOK",
			Quantity:       1,
			Slug:           "startsett-perler",
			ProductType:    "kit",
			RequiredBoards: 2,
		},
		Boards: []domain.CartLine{
			{ProductID: "board-square", Title: "Perlebrett kvadrat", UnitPrice: 59, Currency: "NOK", Slug: "perlebrett-kvadrat", ProductType: "board", RequiresParent: true},
			{ProductID: "board-heart", Title: "Perlebrett hjerte", UnitPrice: 49, Currency: "NOK", Slug: "perlebrett-hjerte", ProductType: "board", RequiresParent: true},
		},
	},
	{
		Product: domain.CartLine{
			ProductID: "beads-mix-1000",
			Title:     "Perler miks 1000 stk",
			UnitPrice: 89,
			Currency:  "NOK",
			Quantity:  2,
			Slug:      "perler-miks-1000",
		},
	},
}

// Apply resets the demo visitor's cart to a kit with boards plus loose beads. It is
// idempotent: the cart is cleared first.
func Apply(ctx context.Context, carts cartWriter) (*cartsvc.View, error) {
	if err := carts.Clear(ctx, DemoVisitor); err != nil {
		return nil, fmt.Errorf("clear demo cart: %w", err)
	}

	var view *cartsvc.View
	for _, kit := range demoKits {
		var err error
		view, err = carts.AddItem(ctx, DemoVisitor, kit.Product)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", kit.Product.ProductID, err)
		}
		parentID := view.Lines[len(view.Lines)-1].LineID
		for _, board := range kit.Boards {
			view, err = carts.AddChildItem(ctx, DemoVisitor, parentID, cartsvc.AddChildInput{Item: board, Quantity: 1})
			if err != nil {
				return nil, fmt.Errorf("add board %s: %w", board.ProductID, err)
			}
		}
	}
	return view, nil
}

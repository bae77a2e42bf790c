package cart

import (
	"perle-storefront/internal/domain"

	"github.com/google/uuid"
)

// Aggregate is the in-memory cart tree. It performs no I/O; Service handles persistence.
type Aggregate struct {
	lines []domain.CartLine
	newID func() string
}

// NewAggregate wraps lines (taken as-is) into an Aggregate.
func NewAggregate(lines []domain.CartLine) *Aggregate {
	return &Aggregate{lines: lines, newID: uuid.NewString}
}

// Lines returns a deep copy of the root lines.
func (a *Aggregate) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(a.lines))
	for i, l := range a.lines {
		out[i] = l.Clone()
	}
	return out
}

// Len returns the number of root lines.
func (a *Aggregate) Len() int {
	return len(a.lines)
}

// AddItem inserts item at the root. A childless item merges into an existing childless
// line with the same product; an item carrying children is always a new line.
func (a *Aggregate) AddItem(item domain.CartLine) domain.CartLine {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if len(item.Children) == 0 {
		for i := range a.lines {
			if a.lines[i].ProductID == item.ProductID && len(a.lines[i].Children) == 0 {
				a.lines[i].Quantity += item.Quantity
				return a.lines[i].Clone()
			}
		}
	}
	line := a.assignIDs(item.Clone())
	a.lines = append(a.lines, line)
	return line.Clone()
}

// AddChildItem appends item as a new child of parentLineID, searching the whole tree.
func (a *Aggregate) AddChildItem(parentLineID string, item domain.CartLine, quantity int) (domain.CartLine, error) {
	if quantity <= 0 {
		quantity = 1
	}
	child := a.assignIDs(item.Clone())
	child.Quantity = quantity
	if !appendChild(a.lines, parentLineID, child) {
		return domain.CartLine{}, domain.ErrParentNotFound
	}
	return child.Clone(), nil
}

// RemoveItem drops lineID from anywhere in the tree. Unknown ids are ignored.
func (a *Aggregate) RemoveItem(lineID string) {
	a.lines = removeLine(a.lines, lineID)
}

// UpdateQuantity sets the quantity of lineID; quantity <= 0 removes the line.
func (a *Aggregate) UpdateQuantity(lineID string, quantity int) {
	if quantity <= 0 {
		a.RemoveItem(lineID)
		return
	}
	setQuantity(a.lines, lineID, quantity)
}

// Clear empties the cart.
func (a *Aggregate) Clear() {
	a.lines = []domain.CartLine{}
}

// TotalItems sums quantities across the whole tree.
func (a *Aggregate) TotalItems() int {
	total := 0
	for _, l := range a.lines {
		total += l.ItemCount()
	}
	return total
}

// TotalPrice sums unitPrice*quantity across the whole tree.
func (a *Aggregate) TotalPrice() int64 {
	var total int64
	for _, l := range a.lines {
		total += l.LineTotal()
	}
	return total
}

// OrderLines converts the tree into checkout order lines with prices in minor units.
func (a *Aggregate) OrderLines() []domain.OrderLine {
	return toOrderLines(a.lines)
}

func (a *Aggregate) assignIDs(line domain.CartLine) domain.CartLine {
	line.LineID = a.newID()
	for i := range line.Children {
		line.Children[i] = a.assignIDs(line.Children[i])
		if line.Children[i].Quantity <= 0 {
			line.Children[i].Quantity = 1
		}
	}
	return line
}

func appendChild(lines []domain.CartLine, parentID string, child domain.CartLine) bool {
	for i := range lines {
		if lines[i].LineID == parentID {
			lines[i].Children = append(lines[i].Children, child)
			return true
		}
		if appendChild(lines[i].Children, parentID, child) {
			return true
		}
	}
	return false
}

func removeLine(lines []domain.CartLine, lineID string) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.LineID == lineID {
			continue
		}
		if len(l.Children) > 0 {
			l.Children = removeLine(l.Children, lineID)
			if len(l.Children) == 0 {
				l.Children = nil
			}
		}
		out = append(out, l)
	}
	return out
}

func setQuantity(lines []domain.CartLine, lineID string, quantity int) bool {
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = quantity
			return true
		}
		if setQuantity(lines[i].Children, lineID, quantity) {
			return true
		}
	}
	return false
}

func toOrderLines(lines []domain.CartLine) []domain.OrderLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.OrderLine{
			ProductID:   l.ProductID,
			Name:        l.Title,
			UnitPrice:   l.UnitPrice * 100,
			Quantity:    l.Quantity,
			ProductType: l.ProductType,
			Children:    toOrderLines(l.Children),
		})
	}
	return out
}

package domain

// CartLine is one node in the cart tree. Children are add-ons bought together with the parent.
type CartLine struct {
	LineID         string     `json:"lineId"`
	ProductID      string     `json:"productId"`
	Title          string     `json:"title"`
	UnitPrice      int64      `json:"unitPrice"`
	Currency       string     `json:"currency"`
	Quantity       int        `json:"quantity"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Slug           string     `json:"slug"`
	ProductType    string     `json:"productType,omitempty"`
	RequiresParent bool       `json:"requiresParent,omitempty"`
	RequiredBoards int        `json:"requiredBoards,omitempty"`
	Children       []CartLine `json:"children,omitempty"`
}

// LineTotal returns unitPrice*quantity for the line and all of its descendants.
func (l CartLine) LineTotal() int64 {
	total := l.UnitPrice * int64(l.Quantity)
	for _, child := range l.Children {
		total += child.LineTotal()
	}
	return total
}

// ItemCount returns the quantity of the line plus the quantities of all descendants.
func (l CartLine) ItemCount() int {
	count := l.Quantity
	for _, child := range l.Children {
		count += child.ItemCount()
	}
	return count
}

// Clone returns a deep copy of the line.
func (l CartLine) Clone() CartLine {
	out := l
	if l.Children != nil {
		out.Children = make([]CartLine, len(l.Children))
		for i, child := range l.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

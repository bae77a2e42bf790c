package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"perle-storefront/internal/domain"

	"github.com/google/uuid"
)

var errCorruptCart = errors.New("corrupt cart payload")

// decodeLines parses a stored cart. Entries written before lineIds existed receive fresh
// ids; migrated reports whether that happened so the caller can re-persist.
func decodeLines(raw []byte) (lines []domain.CartLine, migrated bool, err error) {
	if len(raw) == 0 {
		return []domain.CartLine{}, false, nil
	}
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, false, fmt.Errorf("%w: %v", errCorruptCart, err)
	}
	if lines == nil {
		return []domain.CartLine{}, false, nil
	}
	migrated = fillMissingIDs(lines)
	return lines, migrated, nil
}

func encodeLines(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return json.Marshal(lines)
}

func fillMissingIDs(lines []domain.CartLine) bool {
	changed := false
	for i := range lines {
		if lines[i].LineID == "" {
			lines[i].LineID = uuid.NewString()
			changed = true
		}
		if lines[i].Quantity <= 0 {
			lines[i].Quantity = 1
			changed = true
		}
		if fillMissingIDs(lines[i].Children) {
			changed = true
		}
	}
	return changed
}

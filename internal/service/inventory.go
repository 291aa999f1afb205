package service

import "slices"

// Inventory is the set of items a player holds in one story.
// Methods never modify the receiver; they return a fresh slice.
type Inventory []string

// Has reports whether the item is held.
func (inv Inventory) Has(item string) bool {
	return slices.Contains(inv, item)
}

// With returns a copy that also contains item. Duplicates are not added.
func (inv Inventory) With(item string) Inventory {
	out := inv.clone()
	if item != "" && !inv.Has(item) {
		out = append(out, item)
	}
	return out
}

// Without returns a copy with item removed. Absent items are ignored.
func (inv Inventory) Without(item string) Inventory {
	out := make(Inventory, 0, len(inv))
	for _, it := range inv {
		if it != item {
			out = append(out, it)
		}
	}
	return out
}

func (inv Inventory) clone() Inventory {
	out := make(Inventory, len(inv), len(inv)+1)
	copy(out, inv)
	return out
}

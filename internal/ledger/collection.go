package ledger

import "slices"

type identifiable interface {
	EntityID() string
}

// collection is an insertion-ordered list of entities keyed by id.
type collection[T identifiable] struct {
	items []T
}

func newCollection[T identifiable](items []T) collection[T] {
	return collection[T]{items: slices.Clone(items)}
}

func (c *collection[T]) all() []T {
	out := slices.Clone(c.items)
	if out == nil {
		out = []T{}
	}
	return out
}

func (c *collection[T]) len() int {
	return len(c.items)
}

func (c *collection[T]) add(item T) {
	c.items = append(c.items, item)
}

func (c *collection[T]) index(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool { return item.EntityID() == id })
}

func (c *collection[T]) find(id string) (T, bool) {
	idx := c.index(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return c.items[idx], true
}

func (c *collection[T]) replace(item T) bool {
	idx := c.index(item.EntityID())
	if idx < 0 {
		return false
	}
	c.items[idx] = item
	return true
}

func (c *collection[T]) update(id string, fn func(*T)) bool {
	idx := c.index(id)
	if idx < 0 {
		return false
	}
	fn(&c.items[idx])
	return true
}

func (c *collection[T]) remove(id string) (T, bool) {
	idx := c.index(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	item := c.items[idx]
	c.items = slices.Delete(c.items, idx, idx+1)
	return item, true
}

func (c *collection[T]) removeWhere(match func(T) bool) int {
	before := len(c.items)
	c.items = slices.DeleteFunc(c.items, match)
	return before - len(c.items)
}

func (c *collection[T]) where(match func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range c.items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

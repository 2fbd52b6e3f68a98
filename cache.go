package quarry

import (
	"container/list"
	"sync"

	"github.com/quarrydb/quarry/dialect/sql"
)

const defaultStmtCacheSize = 256

// rendered is a cached formatting result for a statement tree.
type rendered struct {
	query string
	args  []any
}

// stmtCache memoizes Format results keyed by the root node of the tree.
// Trees are persistent, so a node value never changes after construction
// and the key stays valid for the lifetime of the tree. Eviction is LRU.
type stmtCache struct {
	mu      sync.Mutex
	max     int
	ll      *list.List
	entries map[sql.Expr]*list.Element
}

type stmtEntry struct {
	key sql.Expr
	val rendered
}

// newStmtCache returns a cache bounded to max entries. A max of 0 returns
// a nil cache, which get and put treat as disabled.
func newStmtCache(max int) *stmtCache {
	if max <= 0 {
		return nil
	}
	return &stmtCache{
		max:     max,
		ll:      list.New(),
		entries: make(map[sql.Expr]*list.Element, max),
	}
}

func (c *stmtCache) get(key sql.Expr) (rendered, bool) {
	if c == nil {
		return rendered{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return rendered{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*stmtEntry).val, true
}

func (c *stmtCache) put(key sql.Expr, val rendered) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*stmtEntry).val = val
		return
	}
	el := c.ll.PushFront(&stmtEntry{key: key, val: val})
	c.entries[key] = el
	if c.ll.Len() > c.max {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.entries, oldest.Value.(*stmtEntry).key)
	}
}

func (c *stmtCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

package quarry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quarrydb/quarry/dialect/sql"
)

func TestStmtCacheLRU(t *testing.T) {
	c := newStmtCache(2)
	a := sql.Column("a")
	b := sql.Column("b")
	d := sql.Column("d")

	c.put(a, rendered{query: "a"})
	c.put(b, rendered{query: "b"})
	assert.Equal(t, 2, c.len())

	// Touching a makes b the eviction candidate.
	_, ok := c.get(a)
	assert.True(t, ok)
	c.put(d, rendered{query: "d"})
	assert.Equal(t, 2, c.len())

	_, ok = c.get(b)
	assert.False(t, ok)
	r, ok := c.get(a)
	assert.True(t, ok)
	assert.Equal(t, "a", r.query)
	_, ok = c.get(d)
	assert.True(t, ok)
}

func TestStmtCacheUpdate(t *testing.T) {
	c := newStmtCache(4)
	a := sql.Column("a")
	c.put(a, rendered{query: "first"})
	c.put(a, rendered{query: "second"})
	assert.Equal(t, 1, c.len())
	r, ok := c.get(a)
	assert.True(t, ok)
	assert.Equal(t, "second", r.query)
}

func TestStmtCacheDisabled(t *testing.T) {
	var c *stmtCache
	assert.Nil(t, newStmtCache(0))
	c.put(sql.Column("a"), rendered{})
	_, ok := c.get(sql.Column("a"))
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}

func TestStmtCacheConcurrent(t *testing.T) {
	c := newStmtCache(8)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			key := sql.Column(fmt.Sprintf("c%d", i))
			for j := 0; j < 100; j++ {
				c.put(key, rendered{query: key.Name})
				c.get(key)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	assert.LessOrEqual(t, c.len(), 8)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLFU(t *testing.T) {
	t.Run("basic put and get", func(t *testing.T) {
		c := NewLFU[string, int](4)
		c.Put("a", 1)

		value, exists := c.Get("a")
		assert.True(t, exists)
		assert.Equal(t, 1, value)
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewLFU[string, int](4)

		_, exists := c.Get("nope")
		assert.False(t, exists)
	})

	t.Run("update existing key", func(t *testing.T) {
		c := NewLFU[string, int](4)
		c.Put("a", 1)
		c.Put("a", 2)

		value, _ := c.Get("a")
		assert.Equal(t, 2, value)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("delete", func(t *testing.T) {
		c := NewLFU[string, int](4)
		c.Put("a", 1)
		c.Delete("a")

		_, exists := c.Get("a")
		assert.False(t, exists)
	})

	t.Run("evicts least frequently used", func(t *testing.T) {
		c := NewLFU[string, int](2)
		c.Put("hot", 1)
		c.Put("cold", 2)

		// Make "hot" clearly more frequent than "cold"
		for range 5 {
			c.Get("hot")
		}

		c.Put("new", 3)

		_, exists := c.Get("cold")
		assert.False(t, exists, "cold entry should be evicted")

		_, exists = c.Get("hot")
		assert.True(t, exists)

		_, exists = c.Get("new")
		assert.True(t, exists)
	})

	t.Run("capacity never exceeded", func(t *testing.T) {
		c := NewLFU[int, int](3)
		for i := range 10 {
			c.Put(i, i)
		}

		assert.Equal(t, 3, c.Len())
	})

	t.Run("clear", func(t *testing.T) {
		c := NewLFU[string, int](4)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Clear()

		assert.Equal(t, 0, c.Len())
	})

	t.Run("nil value as absent marker", func(t *testing.T) {
		c := NewLFU[uint64, *string](2)
		c.Put(1, nil)

		value, exists := c.Get(1)
		assert.True(t, exists)
		assert.Nil(t, value)
	})
}

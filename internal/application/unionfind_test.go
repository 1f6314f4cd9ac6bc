package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind_Basics(t *testing.T) {
	uf := newUnionFind(5)

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, uf.find(i), "fresh elements are self-rooted")
	}

	uf.union(0, 1)
	uf.union(2, 3)
	assert.True(t, uf.connected(0, 1))
	assert.True(t, uf.connected(2, 3))
	assert.False(t, uf.connected(1, 2))

	uf.union(1, 3)
	assert.True(t, uf.connected(0, 2))
	assert.False(t, uf.connected(0, 4))
}

func TestUnionFind_UnionIdempotent(t *testing.T) {
	uf := newUnionFind(3)
	uf.union(0, 1)
	uf.union(0, 1)
	uf.union(1, 0)
	assert.True(t, uf.connected(0, 1))
	assert.False(t, uf.connected(0, 2))
}

// Deep chains must not overflow: find is iterative.
func TestUnionFind_DeepChain(t *testing.T) {
	const size = 200_000
	uf := newUnionFind(size)
	for i := 1; i < size; i++ {
		uf.parent[i] = i - 1
	}
	assert.Equal(t, 0, uf.find(size-1))
	// Path compression flattens the chain.
	assert.Equal(t, 0, uf.parent[size-1])
}

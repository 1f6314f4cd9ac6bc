package application

// unionFind is a disjoint-set structure over elements identified by index.
// Instances are allocated fresh per clustering pass and never shared between
// goroutines.
type unionFind struct {
	parent []int
}

func newUnionFind(size int) *unionFind {
	parent := make([]int, size)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

// find returns the root of x, compressing the path iteratively on the way.
func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

// union merges the sets containing x and y.
func (u *unionFind) union(x, y int) {
	rx, ry := u.find(x), u.find(y)
	if rx != ry {
		u.parent[ry] = rx
	}
}

// connected reports whether x and y are in the same set.
func (u *unionFind) connected(x, y int) bool {
	return u.find(x) == u.find(y)
}

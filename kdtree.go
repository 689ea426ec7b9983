package img2gba

import (
	"math"
	"sort"

	"github.com/wbrown/img2gba/imageutil"
)

// colorNode is a node of a KD-tree over palette entries. Each node splits
// its subtree along the channel with the largest variance.
type colorNode struct {
	color       imageutil.RGB
	index       int
	left, right *colorNode
	splitAxis   int
}

type paletteEntry struct {
	color imageutil.RGB
	index int
}

// paletteTree answers nearest palette colour queries in RGB space.
type paletteTree struct {
	root  *colorNode
	cache map[imageutil.RGB]int
}

func newPaletteTree(palette []imageutil.RGB) *paletteTree {
	entries := make([]paletteEntry, len(palette))
	for i, c := range palette {
		entries[i] = paletteEntry{color: c, index: i}
	}
	return &paletteTree{
		root:  buildKDTree(entries),
		cache: make(map[imageutil.RGB]int),
	}
}

// nearest returns the palette index closest to c, the lowest index
// winning ties.
func (t *paletteTree) nearest(c imageutil.RGB) int {
	if idx, ok := t.cache[c]; ok {
		return idx
	}
	idx, _ := t.root.nearestNeighbor(c, -1, math.Inf(1))
	t.cache[c] = idx
	return idx
}

func buildKDTree(entries []paletteEntry) *colorNode {
	if len(entries) == 0 {
		return nil
	}

	axis := chooseSplitAxis(entries)
	sort.Slice(entries, func(i, j int) bool {
		return colorComponent(entries[i].color, axis) <
			colorComponent(entries[j].color, axis)
	})

	median := len(entries) / 2
	return &colorNode{
		color:     entries[median].color,
		index:     entries[median].index,
		left:      buildKDTree(entries[:median]),
		right:     buildKDTree(entries[median+1:]),
		splitAxis: axis,
	}
}

// chooseSplitAxis returns the channel (0=R, 1=G, 2=B) with the largest
// variance.
func chooseSplitAxis(entries []paletteEntry) int {
	var mean, variance [3]float64
	for _, e := range entries {
		for axis := range mean {
			mean[axis] += float64(colorComponent(e.color, axis))
		}
	}
	for axis := range mean {
		mean[axis] /= float64(len(entries))
	}
	for _, e := range entries {
		for axis := range variance {
			d := float64(colorComponent(e.color, axis)) - mean[axis]
			variance[axis] += d * d
		}
	}

	if variance[0] > variance[1] && variance[0] > variance[2] {
		return 0
	} else if variance[1] > variance[2] {
		return 1
	}
	return 2
}

func colorComponent(c imageutil.RGB, axis int) uint8 {
	switch axis {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

func colorDistance(a, b imageutil.RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return dr*dr + dg*dg + db*db
}

func (node *colorNode) nearestNeighbor(target imageutil.RGB, best int, bestDist float64) (int, float64) {
	if node == nil {
		return best, bestDist
	}

	dist := colorDistance(node.color, target)
	if dist < bestDist || (dist == bestDist && node.index < best) {
		best, bestDist = node.index, dist
	}

	axisDist := float64(colorComponent(target, node.splitAxis)) -
		float64(colorComponent(node.color, node.splitAxis))
	next, other := node.right, node.left
	if axisDist < 0 {
		next, other = node.left, node.right
	}

	best, bestDist = next.nearestNeighbor(target, best, bestDist)
	// Equal entries can sit on either side of the split, so an exact tie
	// on the plane still needs the other branch.
	if axisDist*axisDist <= bestDist {
		best, bestDist = other.nearestNeighbor(target, best, bestDist)
	}
	return best, bestDist
}

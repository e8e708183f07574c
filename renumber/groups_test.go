package renumber

import (
	"testing"

	"github.com/notargets/gocdo/utils"
	"github.com/stretchr/testify/assert"
)

func TestIndependentGroups(t *testing.T) {
	{ // Chain of 4 cells, 3 interior faces, every consecutive pair shares a cell
		faceCell := utils.Index{0, 1, 1, 2, 2, 3}
		fg := IndependentGroups(64, 4, 3, faceCell)
		// Faces 0 and 2 are independent, face 1 touches cells of both
		assert.Equal(t, 2, fg.NGroups())
		assert.Equal(t, utils.Index{0, 2, 1}, fg.NewToOld)
		assert.Equal(t, utils.Index{2, 1}, fg.GroupSize)
		assert.Equal(t, utils.Index{0, 2}, fg.Group(0))
		assert.Equal(t, utils.Index{1}, fg.Group(1))
		// No two faces within a group share a cell
		for g := 0; g < fg.NGroups(); g++ {
			seen := make(map[int]bool)
			for _, f := range fg.Group(g) {
				for j := 0; j < 2; j++ {
					c := faceCell[2*f+j]
					assert.False(t, seen[c])
					seen[c] = true
				}
			}
		}
	}
	{ // Group size cap forces one face per group
		faceCell := utils.Index{0, 1, 1, 2, 2, 3}
		fg := IndependentGroups(1, 4, 3, faceCell)
		assert.Equal(t, 3, fg.NGroups())
		assert.Equal(t, utils.Index{1, 1, 1}, fg.GroupSize)
	}
	{ // Star pattern, all faces share cell 0, one group per face
		faceCell := utils.Index{0, 1, 0, 2, 0, 3}
		fg := IndependentGroups(64, 4, 3, faceCell)
		assert.Equal(t, 3, fg.NGroups())
		for g := 0; g < 3; g++ {
			assert.Equal(t, utils.Index{g}, fg.Group(g))
		}
	}
	{ // Boundary faces carry -1 as their second cell and never conflict through it
		faceCell := utils.Index{0, -1, 1, -1}
		fg := IndependentGroups(64, 2, 2, faceCell)
		assert.Equal(t, 1, fg.NGroups())
		assert.Equal(t, utils.Index{0, 1}, fg.NewToOld)
	}
	{ // Invalid inputs
		assert.Panics(t, func() { IndependentGroups(64, 2, 2, utils.Index{0, 1}) })
		assert.Panics(t, func() { IndependentGroups(0, 2, 1, utils.Index{0, 1}) })
	}
}

func TestThreadBounds(t *testing.T) {
	faceCell := utils.Index{0, 1, 1, 2, 2, 3, 3, 4, 4, 5}
	fg := IndependentGroups(64, 6, 5, faceCell)
	// Odd faces conflict with their even neighbors
	assert.Equal(t, 2, fg.NGroups())
	assert.Equal(t, utils.Index{3, 2}, fg.GroupSize)

	bounds := fg.ThreadBounds(2)
	assert.Len(t, bounds, 2)
	for g := 0; g < fg.NGroups(); g++ {
		var total int
		for tid := 0; tid < 2; tid++ {
			b := bounds[g][tid]
			assert.LessOrEqual(t, b[0], b[1])
			total += b[1] - b[0]
		}
		assert.Equal(t, fg.GroupSize[g], total)
	}
	// Worker ranges of the first group cover NewToOld offsets 0..3
	assert.Equal(t, [2]int{0, 2}, bounds[0][0])
	assert.Equal(t, [2]int{2, 3}, bounds[0][1])
	// Second group starts where the first ends
	assert.Equal(t, 3, bounds[1][0][0])
}

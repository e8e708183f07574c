package renumber

import (
	"fmt"

	"github.com/notargets/gocdo/utils"
)

/*
IndependentGroups partitions interior faces into groups such that no two
faces in one group touch the same cell. Within a group every face can be
assembled concurrently with plain adds - no atomics, no critical section -
which is the thread-exclusive alternative to the locking value-assembly
strategies.

faceCell holds the two cells of each face (faceCell[2*f], faceCell[2*f+1]).
The returned ordering lists face ids group by group; GroupSize gives the
face count of each group.
*/
type FaceGroups struct {
	NewToOld  utils.Index // face ids reordered group by group
	GroupSize utils.Index
}

func (fg *FaceGroups) NGroups() int {
	return len(fg.GroupSize)
}

// Group returns the face ids of group g in the reordered numbering
func (fg *FaceGroups) Group(g int) utils.Index {
	var start int
	for i := 0; i < g; i++ {
		start += fg.GroupSize[i]
	}
	return fg.NewToOld[start : start+fg.GroupSize[g]]
}

func IndependentGroups(maxGroupSize, nCells, nFaces int, faceCell utils.Index) (fg *FaceGroups) {
	if len(faceCell) != 2*nFaces {
		panic(fmt.Errorf("face-cell array has length %d, expected %d", len(faceCell), 2*nFaces))
	}
	if maxGroupSize < 1 {
		panic("group size must be positive")
	}

	// Cells -> faces graph, for the conflict test
	cellFaces := make([][]int, nCells)
	for f := 0; f < nFaces; f++ {
		for j := 0; j < 2; j++ {
			if c := faceCell[2*f+j]; c >= 0 {
				cellFaces[c] = append(cellFaces[c], f)
			}
		}
	}

	fg = &FaceGroups{}
	var (
		faceMarker         = make([]int, nFaces)
		groupFaceIDs       = make(utils.Index, 0, maxGroupSize)
		firstUnmarked      int
		nMarked            int
		conflictsWithGroup = func(fID int) bool {
			// fID conflicts when any already grouped face shares a cell
			for _, fCmp := range groupFaceIDs {
				for j := 0; j < 2; j++ {
					c := faceCell[2*fCmp+j]
					if c < 0 {
						continue
					}
					for _, other := range cellFaces[c] {
						if other == fID {
							return true
						}
					}
				}
			}
			return false
		}
	)
	for f := range faceMarker {
		faceMarker[f] = -1
	}

	for nMarked != nFaces {
		// Start a new group
		groupID := fg.NGroups()
		groupFaceIDs = groupFaceIDs[:0]

		for fID := firstUnmarked; fID < nFaces && len(groupFaceIDs) < maxGroupSize; fID++ {
			if faceMarker[fID] != -1 {
				continue
			}
			if conflictsWithGroup(fID) {
				continue
			}
			// Add the face to the group
			if firstUnmarked == fID {
				firstUnmarked = fID + 1
			}
			faceMarker[fID] = groupID
			groupFaceIDs = append(groupFaceIDs, fID)
			nMarked++
		}
		fg.NewToOld = append(fg.NewToOld, groupFaceIDs...)
		fg.GroupSize = append(fg.GroupSize, len(groupFaceIDs))
	}
	return
}

/*
ThreadBounds splits each group across nThreads workers. bounds[g][t] holds
the [start, end) offsets into NewToOld for worker t within group g. Groups
smaller than nThreads leave the trailing workers with empty ranges.
*/
func (fg *FaceGroups) ThreadBounds(nThreads int) (bounds [][][2]int) {
	bounds = make([][][2]int, fg.NGroups())
	var groupStart int
	for g, gSize := range fg.GroupSize {
		bounds[g] = make([][2]int, nThreads)
		pm := utils.NewPartitionMap(nThreads, gSize)
		for t := 0; t < nThreads; t++ {
			kMin, kMax := pm.GetBucketRange(t)
			bounds[g][t] = [2]int{groupStart + kMin, groupStart + kMax}
		}
		groupStart += gSize
	}
	return
}

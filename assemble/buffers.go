package assemble

import (
	"fmt"
	"sync"
)

/*
AssemblyBuffer is the per-worker scratch for folding one cellwise system
into the global matrix: the entity's global dof ids plus parallel row, col,
value arrays sized to the worst case local dense block. Allocated once at
setup, overwritten on every call, owned exclusively by one worker. Never
locked, never shared.
*/
type AssemblyBuffer struct {
	NxDofs     int // block size in effect for the block layout
	DofGIDs    []int64
	RowGIDs    []int64
	ColGIDs    []int64
	Values     []float64
	BufferSize int
}

/*
BufferPool holds one AssemblyBuffer per worker, all sized to the global
maximum over every active discretization family so a single pool serves the
whole solve. Each worker allocates its own buffer first touch for memory
affinity; correctness does not depend on it.
*/
type BufferPool struct {
	NWorkers int
	buffers  []*AssemblyBuffer
}

func NewBufferPool(nWorkers, dofSize, bufferSize int) (p *BufferPool) {
	if dofSize < 1 || bufferSize < dofSize*dofSize {
		panic(fmt.Errorf("buffer pool sized below the worst-case block: dofSize %d, bufferSize %d",
			dofSize, bufferSize))
	}
	p = &BufferPool{
		NWorkers: nWorkers,
		buffers:  make([]*AssemblyBuffer, nWorkers),
	}
	wg := sync.WaitGroup{}
	wg.Add(nWorkers)
	for n := 0; n < nWorkers; n++ {
		go func(tid int) {
			defer wg.Done()
			p.buffers[tid] = &AssemblyBuffer{
				NxDofs:     1, // Default setting
				DofGIDs:    make([]int64, dofSize),
				RowGIDs:    make([]int64, bufferSize),
				ColGIDs:    make([]int64, bufferSize),
				Values:     make([]float64, bufferSize),
				BufferSize: bufferSize,
			}
		}(n)
	}
	wg.Wait()
	return
}

// Get returns the buffer owned by worker tid, nil for an invalid id
func (p *BufferPool) Get(tid int) *AssemblyBuffer {
	if tid < 0 || tid >= p.NWorkers {
		return nil
	}
	return p.buffers[tid]
}

package parallel

import (
	"math"
	"sync"

	"github.com/notargets/gocdo/utils"
)

/*
RankGroup joins NP cooperating solver ranks running as goroutines within one
process. It stands in for the message passing runtime of a distributed run:
each rank owns a mesh partition and meets the others only at collective
calls. All collective operations are blocking and must be entered by every
rank in the same order.
*/
type RankGroup struct {
	NP        int
	barrier   *Barrier
	counterMB *utils.MailBox[uint64]
	floatMB   *utils.MailBox[float64]
	fabric    [][]chan interface{} // fabric[from][to], for structured exchanges
}

func NewRankGroup(NP int) (rg *RankGroup) {
	if NP < 1 {
		panic("rank group needs at least one rank")
	}
	rg = &RankGroup{
		NP:        NP,
		barrier:   NewBarrier(NP),
		counterMB: utils.NewMailBox[uint64](NP),
		floatMB:   utils.NewMailBox[float64](NP),
	}
	rg.fabric = make([][]chan interface{}, NP)
	for i := 0; i < NP; i++ {
		rg.fabric[i] = make([]chan interface{}, NP)
		for j := 0; j < NP; j++ {
			rg.fabric[i][j] = make(chan interface{}, NP)
		}
	}
	return
}

// Comm returns the communicator handle used by one rank
func (rg *RankGroup) Comm(rank int) *Comm {
	if rank < 0 || rank >= rg.NP {
		panic("rank out of range")
	}
	return &Comm{group: rg, MyRank: rank}
}

// Run launches fn on every rank and blocks until all return
func (rg *RankGroup) Run(fn func(c *Comm)) {
	wg := sync.WaitGroup{}
	wg.Add(rg.NP)
	for n := 0; n < rg.NP; n++ {
		go func(rank int) {
			defer wg.Done()
			fn(rg.Comm(rank))
		}(n)
	}
	wg.Wait()
}

type Comm struct {
	group  *RankGroup
	MyRank int
}

func (c *Comm) NP() int {
	if c == nil {
		return 1
	}
	return c.group.NP
}

func (c *Comm) Barrier() {
	if c == nil {
		return
	}
	c.group.barrier.Await()
}

// CounterSum sums a diagnostic counter over all ranks
func (c *Comm) CounterSum(val uint64) (sum uint64) {
	if c == nil || c.group.NP < 2 {
		return val
	}
	var (
		mb = c.group.counterMB
	)
	mb.PostMessageToAll(c.MyRank, val)
	mb.DeliverMyMessages(c.MyRank)
	c.Barrier()
	mb.ReceiveMyMessages(c.MyRank)
	sum = val
	for _, other := range mb.Messages(c.MyRank) {
		sum += other
	}
	mb.ClearMyMessages(c.MyRank)
	c.Barrier() // No rank may start the next collective until all have read
	return
}

type ReduceOp uint8

const (
	OpSum ReduceOp = iota
	OpMin
	OpMax
)

// Reduce combines a scalar over all ranks; every rank gets the result
func (c *Comm) Reduce(val float64, op ReduceOp) (r float64) {
	if c == nil || c.group.NP < 2 {
		return val
	}
	var (
		mb = c.group.floatMB
	)
	mb.PostMessageToAll(c.MyRank, val)
	mb.DeliverMyMessages(c.MyRank)
	c.Barrier()
	mb.ReceiveMyMessages(c.MyRank)
	r = val
	for _, other := range mb.Messages(c.MyRank) {
		switch op {
		case OpSum:
			r += other
		case OpMin:
			r = math.Min(r, other)
		case OpMax:
			r = math.Max(r, other)
		}
	}
	mb.ClearMyMessages(c.MyRank)
	c.Barrier()
	return
}

/*
Exchange performs an all-to-all structured exchange: send[j] goes to rank j,
and recv[j] is what rank j addressed to this rank. Every rank must call with
a send slice of length NP; a nil entry means "nothing for that rank". The
per-pair channels are buffered, so no barrier is required as long as all
ranks issue their collectives in the same order.
*/
func Exchange[T any](c *Comm, send [][]T) (recv [][]T) {
	if c == nil || c.group.NP < 2 {
		return send
	}
	var (
		NP = c.group.NP
		me = c.MyRank
	)
	if len(send) != NP {
		panic("send slice length must equal the number of ranks")
	}
	for j := 0; j < NP; j++ {
		if j != me {
			c.group.fabric[me][j] <- send[j]
		}
	}
	recv = make([][]T, NP)
	recv[me] = send[me]
	for j := 0; j < NP; j++ {
		if j != me {
			recv[j] = (<-c.group.fabric[j][me]).([]T)
		}
	}
	return
}

/*
Barrier is a cyclic barrier: Await blocks until all NP participants arrive,
then releases them together and resets for the next cycle.
*/
type Barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	NP    int
	count int
	cycle int
}

func NewBarrier(NP int) (b *Barrier) {
	b = &Barrier{NP: NP}
	b.cond = sync.NewCond(&b.mu)
	return
}

func (b *Barrier) Await() {
	b.mu.Lock()
	defer b.mu.Unlock()
	cycle := b.cycle
	b.count++
	if b.count == b.NP {
		b.count = 0
		b.cycle++
		b.cond.Broadcast()
		return
	}
	for cycle == b.cycle {
		b.cond.Wait()
	}
}

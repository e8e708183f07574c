package utils

type Index []int

func NewIndex(N int) (I Index) {
	I = make(Index, N)
	return
}

func NewRangeOffset(rmin, rmax int) (r Index) {
	// Input range is "1 based" and converted to zero based index
	r = NewRange(rmin-1, rmax-1)
	return
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1
	)
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func (I Index) Add(val int) (r Index) {
	r = make(Index, len(I))
	for i, ival := range I {
		r[i] = ival + val
	}
	return
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for j, jval := range J {
		r[j] = I[jval]
	}
	return
}

func (I Index) Contains(val int) bool {
	for _, ival := range I {
		if ival == val {
			return true
		}
	}
	return false
}

func (I Index) Max() (max int) {
	for _, ival := range I {
		if ival > max {
			max = ival
		}
	}
	return
}

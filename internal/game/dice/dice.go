// Package dice provides the randomness abstraction used for reward picks and
// quiz shuffles.
package dice

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Pick returns a uniformly chosen index in [0, n), or -1 when n <= 0.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

// Shuffle permutes n elements in place via swap using a Fisher-Yates walk.
//
// Postcondition: every permutation of the n elements is equally likely given a
// uniform src.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

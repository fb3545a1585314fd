package linalg

import (
	"fmt"
	"math/rand"
	"testing"
)

func BenchmarkSolve(b *testing.B) {
	for _, n := range []int{8, 32, 128} {
		rng := rand.New(rand.NewSource(int64(n)))
		a, rhs := randomDominantSystem(rng, n)

		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := Solve(a, rhs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

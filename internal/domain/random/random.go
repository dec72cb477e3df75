// Package random is the uniform draw source shared by the reminder scheduler and
// the review composer.
package random

import "math/rand/v2"

// Source supplies uniform draws in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Global draws from the runtime's global generator.
func Global() Source { return globalSource{} }

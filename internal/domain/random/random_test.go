package random

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobal_DrawsInUnitInterval(t *testing.T) {
	src := Global()
	for range 1000 {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSeededGeneratorIsASource(t *testing.T) {
	var src Source = rand.New(rand.NewPCG(1, 2))
	assert.Equal(t, rand.New(rand.NewPCG(1, 2)).Float64(), src.Float64())
}

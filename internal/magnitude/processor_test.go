package magnitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryDropsUnknownTypesWithWarning(t *testing.T) {
	mlv := NewIdentityProcessor("MLv", "MLv")
	reg, unknown := NewRegistry([]Processor{mlv}, []string{"MLv", "bogus"})

	require.Len(t, unknown, 1)
	assert.Equal(t, "bogus", unknown[0])
	assert.Len(t, reg.ProcessorsFor("MLv"), 1)
}

func TestRegistrySupportsMultipleProcessorsPerAmplitudeType(t *testing.T) {
	a := NewIdentityProcessor("MLv", "MLv")
	b := NewLinearProcessor("MLv", "ML2", IdentityCorrection)
	reg, _ := NewRegistry([]Processor{a, b}, []string{"MLv", "ML2"})

	assert.Len(t, reg.ProcessorsFor("MLv"), 2)
}

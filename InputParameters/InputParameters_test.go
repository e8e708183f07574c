package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	var (
		yamlInput = `
Title: Unit square Poisson
MeshNx: 16
MeshNy: 16
NumWorkers: 4
NumRanks: 2
Strategy: critical
SourceValue: 1.0
BCs:
  left: 0.0
  right: 1.0
Monitoring: true
`
	)
	{
		var ip InputParameters
		err := ip.Parse([]byte(yamlInput))
		assert.NoError(t, err)
		assert.Equal(t, "Unit square Poisson", ip.Title)
		assert.Equal(t, 16, ip.MeshNx)
		assert.Equal(t, 4, ip.NumWorkers)
		assert.Equal(t, 2, ip.NumRanks)
		assert.Equal(t, "critical", ip.Strategy)
		assert.Equal(t, 1.0, ip.SourceValue)
		assert.Equal(t, 0.0, ip.BCs["left"])
		assert.Equal(t, 1.0, ip.BCs["right"])
		assert.True(t, ip.Monitoring)
	}
	{ // Defaults fill in when fields are omitted
		var ip InputParameters
		err := ip.Parse([]byte("Title: minimal\nMeshNx: 2\nMeshNy: 3\n"))
		assert.NoError(t, err)
		assert.Equal(t, 1, ip.NumWorkers)
		assert.Equal(t, 1, ip.NumRanks)
		assert.Equal(t, "atomic", ip.Strategy)
	}
	{ // Invalid mesh dimensions
		var ip InputParameters
		assert.Error(t, ip.Parse([]byte("Title: bad\nMeshNx: 0\nMeshNy: 4\n")))
	}
}

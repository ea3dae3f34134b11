package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUFCode(t *testing.T) {
	code, ok := UFCode("São Paulo")
	assert.True(t, ok)
	assert.Equal(t, "SP", code)
	assert.Equal(t, Sudeste, Region(code))

	_, ok = UFCode("Brasil")
	assert.False(t, ok)
	_, ok = UFCode("Nordeste")
	assert.False(t, ok)
}

func TestUFsCoverAllRegions(t *testing.T) {
	assert.Equal(t, []string{"AC", "AM", "AP", "PA", "RO", "RR", "TO"}, UFs(Norte))
	assert.Equal(t, []string{"PR", "RS", "SC"}, UFs(Sul))

	total := 0
	for _, r := range Regions() {
		total += len(UFs(r))
	}
	assert.Equal(t, 27, total)
	assert.Len(t, ufByName, 27)
}

func TestIsRegion(t *testing.T) {
	assert.True(t, IsRegion("Centro-Oeste"))
	assert.False(t, IsRegion("Brasil"))
}

package gene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSpeciesHuman(t *testing.T) {
	features := featuresOf("HLA-A", "HLA-B", "HLA-C", "CD19", "MS4A1")
	assert.Equal(t, SpeciesHuman, DetectSpecies(features))
}

func TestDetectSpeciesMouse(t *testing.T) {
	features := featuresOf("H2-K1", "H2-D1", "H2-AB1", "H2-AA", "Cd19")
	assert.Equal(t, SpeciesMouse, DetectSpecies(features))
}

func TestDetectSpeciesBelowMinMatches(t *testing.T) {
	features := featuresOf("HLA-A", "HLA-B", "CD19")
	assert.Equal(t, SpeciesUnknown, DetectSpecies(features))
}

func TestDetectSpeciesInsufficientMargin(t *testing.T) {
	// 3 human vs 2 mouse: margin 1 < 2, so no call.
	features := featuresOf("HLA-A", "HLA-B", "HLA-C", "H2-K1", "H2-D1")
	assert.Equal(t, SpeciesUnknown, DetectSpecies(features))
}

func TestDetectSpeciesMarginMet(t *testing.T) {
	// 3 human vs 1 mouse: margin 2 >= 2.
	features := featuresOf("HLA-A", "HLA-B", "HLA-C", "H2-K1")
	assert.Equal(t, SpeciesHuman, DetectSpecies(features))
}

func TestDetectSpeciesEmpty(t *testing.T) {
	assert.Equal(t, SpeciesUnknown, DetectSpecies(nil))
}

func TestSpeciesString(t *testing.T) {
	assert.Equal(t, "human", SpeciesHuman.String())
	assert.Equal(t, "mouse", SpeciesMouse.String())
	assert.Equal(t, "unknown", SpeciesUnknown.String())
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityLevelRank(t *testing.T) {
	assert.Greater(t, QualityMedical.Rank(), QualityProfessional.Rank())
	assert.Greater(t, QualityProfessional.Rank(), QualityHobby.Rank())
	assert.Equal(t, 0, QualityLevel("bogus").Rank())
}

func TestQualityLevelAtLeast(t *testing.T) {
	assert.True(t, QualityMedical.AtLeast(QualityHobby))
	assert.True(t, QualityProfessional.AtLeast(QualityProfessional))
	assert.False(t, QualityHobby.AtLeast(QualityMedical))
}

func TestParseQualityLevel(t *testing.T) {
	for _, s := range []string{"hobby", "professional", "medical"} {
		level, err := ParseQualityLevel(s)
		require.NoError(t, err)
		assert.Equal(t, QualityLevel(s), level)
	}

	_, err := ParseQualityLevel("industrial")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown quality level")
}

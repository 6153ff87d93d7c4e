package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierFree, ParseTier("free"))
	assert.Equal(t, TierStarter, ParseTier("starter"))
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierFree, ParseTier(""))
	assert.Equal(t, TierFree, ParseTier("enterprise"))
}

func TestClientLimit(t *testing.T) {
	free := ClientLimit(TierFree)
	if assert.NotNil(t, free) {
		assert.Equal(t, 50, *free)
	}
	starter := ClientLimit(TierStarter)
	if assert.NotNil(t, starter) {
		assert.Equal(t, 500, *starter)
	}
	assert.Nil(t, ClientLimit(TierPro))
}

func TestCanAddClientBoundaries(t *testing.T) {
	assert.True(t, CanAddClient(49, TierFree))
	assert.False(t, CanAddClient(50, TierFree))
	assert.False(t, CanAddClient(51, TierFree))

	assert.True(t, CanAddClient(499, TierStarter))
	assert.False(t, CanAddClient(500, TierStarter))

	assert.True(t, CanAddClient(0, TierPro))
	assert.True(t, CanAddClient(1_000_000, TierPro))
}

func TestManagedSMSEligibility(t *testing.T) {
	assert.False(t, ManagedSMSEligible(TierFree))
	assert.True(t, ManagedSMSEligible(TierStarter))
	assert.True(t, ManagedSMSEligible(TierPro))
}

package leagues_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportlines/oddsfeed/internal/leagues"
	"github.com/sportlines/oddsfeed/pkg/models"
)

func TestResolveKnownLeague(t *testing.T) {
	registry := leagues.NewRegistry()

	league, err := registry.Resolve("NFL")
	require.NoError(t, err)
	assert.Equal(t, "NFL", league.Code)
	assert.Equal(t, "FOOTBALL", league.SportID)
	assert.Equal(t, "NFL", league.LeagueID)
	assert.Equal(t, "americanfootball_nfl", league.SportKey)
}

func TestResolveUnknownLeague(t *testing.T) {
	registry := leagues.NewRegistry()

	_, err := registry.Resolve("XFL")
	require.Error(t, err)
	assert.ErrorIs(t, err, leagues.ErrUnsupported)
	assert.Contains(t, err.Error(), "XFL")
}

func TestDefaultLeagueSet(t *testing.T) {
	registry := leagues.NewRegistry()

	assert.Equal(t, 9, registry.Count())
	codes := registry.Codes()
	require.Len(t, codes, 9)
	assert.Equal(t, "NFL", codes[0])

	for _, code := range codes {
		league, err := registry.Resolve(code)
		require.NoError(t, err)
		assert.NotEmpty(t, league.SportID, code)
		assert.NotEmpty(t, league.LeagueID, code)
		assert.NotEmpty(t, league.SportKey, code)
	}
}

func TestCustomRegistry(t *testing.T) {
	registry := leagues.NewRegistryWith([]models.League{
		{Code: "TEST", SportID: "TESTBALL", LeagueID: "TEST", SportKey: "testball_test"},
		{Code: "TEST", SportID: "DUP", LeagueID: "DUP", SportKey: "dup"},
	})

	// Duplicate codes keep the first registration
	assert.Equal(t, 1, registry.Count())
	league, err := registry.Resolve("TEST")
	require.NoError(t, err)
	assert.Equal(t, "TESTBALL", league.SportID)
}

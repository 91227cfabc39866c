package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownKey(t *testing.T) {
	words, err := Get("domains", "aggregators")
	require.NoError(t, err)
	assert.Contains(t, words, "tripadvisor")
}

func TestGet_AcceptsExtension(t *testing.T) {
	words, err := Get("domains.json", "cinema_chains")
	require.NoError(t, err)
	assert.Contains(t, words, "odeon")
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("domains", "nope")
	assert.Error(t, err)
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing", "x")
	assert.Error(t, err)
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() { MustGet("domains", "nope") })
}

func TestSet_LowerCases(t *testing.T) {
	set := Set("tasks", "hours_url")
	assert.True(t, set["opening-hours"])
}

func TestList_Sorted(t *testing.T) {
	ClearCache()
	keys, err := List("exclusions")
	require.NoError(t, err)
	assert.Equal(t, []string{"policy", "schedule"}, keys)
}

func TestGet_TextVocabulary(t *testing.T) {
	words, err := Get("text", "commerce")
	require.NoError(t, err)
	assert.Contains(t, words, "checkout")
	assert.True(t, Set("text", "name_noise")["the"])
}

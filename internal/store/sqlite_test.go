package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceAllAndLoadAllRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	rows := []Row{
		{
			ID: "mem-aaaaaaaaaaaa", Key: "phone", Fact: "My phone is a Pixel 9", Tags: []string{"device", "phone"},
			Importance: 2, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z",
			UserName: "alex", ChatID: "chat-1",
			LexicalBlob: "my phone is a pixel 9", SemanticMap: map[string]float64{"t:phone": 1},
		},
		{
			ID: "mem-bbbbbbbbbbbb", Key: "city", Fact: "I live in Tbilisi", Tags: nil,
			Importance: 3, CreatedAt: "2026-01-02T00:00:00Z", UpdatedAt: "2026-01-03T00:00:00Z",
			UserName: "alex", ChatID: "chat-1",
			LexicalBlob: "i live in tbilisi", SemanticMap: map[string]float64{"t:tbilisi": 1},
		},
	}

	require.NoError(t, s.ReplaceAll(rows))

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	// ordered by updated_at DESC
	require.Equal(t, "mem-bbbbbbbbbbbb", loaded[0].ID)
	require.Equal(t, "mem-aaaaaaaaaaaa", loaded[1].ID)
	require.Equal(t, "My phone is a Pixel 9", loaded[1].Fact)
	require.Equal(t, []string{"device", "phone"}, loaded[1].Tags)
}

func TestReplaceAllClearsPreviousRows(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ReplaceAll([]Row{
		{ID: "mem-a", Fact: "first", Tags: []string{}, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z", SemanticMap: map[string]float64{}},
	}))
	require.NoError(t, s.ReplaceAll([]Row{
		{ID: "mem-b", Fact: "second", Tags: []string{}, CreatedAt: "2026-01-02T00:00:00Z", UpdatedAt: "2026-01-02T00:00:00Z", SemanticMap: map[string]float64{}},
	}))

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "mem-b", loaded[0].ID)
}

func TestIsEmpty(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, s.ReplaceAll([]Row{
		{ID: "mem-a", Fact: "first", Tags: []string{}, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z", SemanticMap: map[string]float64{}},
	}))

	empty, err = s.IsEmpty()
	require.NoError(t, err)
	require.False(t, empty)
}

func TestFTSSearchDisabledReturnsFalse(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	if s.FTSEnabled() {
		t.Skip("fts5 available in this build, exercised by TestFTSSearchFindsMatch instead")
	}
	_, ok := s.SearchFTS("phone")
	require.False(t, ok)
}

func TestFTSSearchFindsMatch(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	if !s.FTSEnabled() {
		t.Skip("fts5 unavailable in this build")
	}

	require.NoError(t, s.ReplaceAll([]Row{
		{ID: "mem-phone", Key: "phone", Fact: "My phone is a Pixel 9", Tags: []string{},
			CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z",
			LexicalBlob: "my phone is a pixel 9", SemanticMap: map[string]float64{}},
		{ID: "mem-city", Key: "city", Fact: "I live in Tbilisi", Tags: []string{},
			CreatedAt: "2026-01-02T00:00:00Z", UpdatedAt: "2026-01-02T00:00:00Z",
			LexicalBlob: "i live in tbilisi", SemanticMap: map[string]float64{}},
	}))

	matches, ok := s.SearchFTS("pixel")
	require.True(t, ok)
	require.Len(t, matches, 1)
	require.Equal(t, "mem-phone", matches[0].ID)
}

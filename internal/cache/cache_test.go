package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/baxromumarov/fbref-downloader/internal/table"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	testCases := []struct {
		team     string
		expected string
	}{
		{team: "Arsenal", expected: "arsenal"},
		{team: "Real Madrid", expected: "real-madrid"},
		{team: "Athletic-Club-Bilbao", expected: "athletic-club-bilbao"},
		{team: "PSG", expected: "psg"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, Key(tc.team))
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	in := &table.RawTable{
		Columns: []string{"Date", "GF", "Season", "Team"},
		Rows: [][]string{
			{"2023-08-13", "2", "2023-2024", "Arsenal"},
			{"2023-08-20", "1", "2023-2024", "Arsenal"},
		},
	}
	require.NoError(t, c.Store("Arsenal", in))

	out, ok := c.Load("Arsenal")
	require.True(t, ok)
	require.Equal(t, in.Columns, out.Columns)
	require.Equal(t, in.Rows, out.Rows)
}

func TestLoadAbsent(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Load("Chelsea")
	require.False(t, ok)
}

func TestLoadUnreadableArtifactDegradesToAbsent(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	// A directory at the artifact path makes the read fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "chelsea_matchlogs.csv"), 0o755))

	_, ok := c.Load("Chelsea")
	require.False(t, ok)
}

func TestStoreOverwrites(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	first := &table.RawTable{Columns: []string{"Date"}, Rows: [][]string{{"a"}, {"b"}}}
	second := &table.RawTable{Columns: []string{"Date"}, Rows: [][]string{{"c"}}}
	require.NoError(t, c.Store("Ajax", first))
	require.NoError(t, c.Store("Ajax", second))

	out, ok := c.Load("Ajax")
	require.True(t, ok)
	require.Equal(t, second.Rows, out.Rows)
}

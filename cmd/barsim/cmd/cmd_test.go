package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barsim/journal"
	"github.com/rustyeddy/barsim/market"
)

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "5:20:5", want: []int{5, 10, 15, 20}},
		{in: "3:5", want: []int{3, 4, 5}},
		{in: "7", want: []int{7}},
		{in: "10:5:1", wantErr: true},
		{in: "0:5:1", wantErr: true},
		{in: "5:10:0", wantErr: true},
		{in: "x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRankSweep(t *testing.T) {
	t.Parallel()

	rs := []sweepResult{
		{Fast: 5, Slow: 20, NetProfit: 10},
		{Fast: 5, Slow: 30, NetProfit: 40},
		{Fast: 10, Slow: 20, NetProfit: 10},
	}
	rankSweep(rs)
	assert.Equal(t, 30, rs[0].Slow)
	assert.Equal(t, 5, rs[1].Fast, "ties keep grid order")
	assert.Equal(t, 10, rs[2].Fast)
}

func writeBars(t *testing.T, n int) string {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	for i := 0; i < n; i++ {
		// a slow sine-ish zig zag so the EMAs cross a few times
		px := 100 + float64((i/8)%2*2-1)*float64(i%8)
		fmt.Fprintf(&b, "%s,%g,%g,%g,%g,1\n", t0.Add(time.Duration(i)*time.Hour).Format(time.RFC3339), px, px+1, px-1, px)
	}
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// The commands share package level flag variables, so these run serially.
func TestBacktestCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeBars(t, 64)
	db := filepath.Join(dir, "runs.sqlite")
	replay := filepath.Join(dir, "replay.pine")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"backtest",
		"--data", data, "--strategy", "ema-cross", "--fast", "3", "--slow", "8",
		"--journal", "sqlite", "--db", db, "--replay", replay, "--progress=false",
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Backtest Result")
	assert.Contains(t, out.String(), "ema-cross(3,8)")

	script, err := os.ReadFile(replay)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "//@version=5\n"))

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.ListBacktestRuns(t.Context())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 64, runs[0].Bars)

	equity, err := j.ListEquityByRunID(t.Context(), runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, equity, 64)
}

func TestConvertCommand(t *testing.T) {
	data := writeBars(t, 10)
	out := filepath.Join(t.TempDir(), "bars.parquet")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"convert", "--in", data, "--out", out, "--symbol", "ZZ"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Wrote 10 bars")

	s, err := market.LoadParquet(out)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, "ZZ", s.Instrument)
}

package slurm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClusterUtilization(t *testing.T) {
	// sreport -n -P reports minutes
	out := "picotte|billing|5114880|85248|0|2556864|0|7756992\n"

	figures, err := ParseClusterUtilization(out)
	require.NoError(t, err)

	assert.InDelta(t, 85248.0, figures.AllocSu, 1e-9)
	assert.InDelta(t, 1420.8, figures.DownSu, 1e-9)
	assert.InDelta(t, 0.0, figures.PlannedDownSu, 1e-9)
	assert.InDelta(t, 42614.4, figures.IdleSu, 1e-9)
	assert.InDelta(t, 129283.2, figures.TotalSu, 1e-9)
	assert.InDelta(t, 1420.8, figures.TotalDownSu(), 1e-9)
}

func TestParseClusterUtilizationErrors(t *testing.T) {
	_, err := ParseClusterUtilization("")
	assert.Error(t, err)

	_, err = ParseClusterUtilization("picotte|billing|123\n")
	assert.Error(t, err)

	_, err = ParseClusterUtilization("picotte|billing|x|0|0|0|0|0\n")
	assert.Error(t, err)
}

func TestClusterUtilizationArgs(t *testing.T) {
	runner := &fakeRunner{out: "picotte|billing|60|0|0|0|0|60\n"}
	client := NewClient(runner)

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	figures, err := client.ClusterUtilization(context.Background(), start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, figures.AllocSu, 1e-9)

	assert.Equal(t, "sreport", runner.gotName)
	assert.Equal(t, []string{
		"-n", "-P", "cluster", "utilization", "-T", "billing",
		"start=2026-07-01", "end=2026-08-01",
	}, runner.gotArgs)
}

func TestParseAccountUtilization(t *testing.T) {
	out := "picotte|physicsprj||Physics|billing|7200\n" +
		"picotte| physicsprj|alice|Alice A|billing|4800\n" +
		"picotte| physicsprj|bob|Bob B|billing|2400\n"

	usages, err := ParseAccountUtilization(out)
	require.NoError(t, err)
	require.Len(t, usages, 3)

	rollup := usages[0]
	assert.Equal(t, "physicsprj", rollup.Account)
	assert.Empty(t, rollup.Login)
	assert.InDelta(t, 120.0, rollup.UsedSu, 1e-9)

	alice := usages[1]
	assert.Equal(t, "alice", alice.Login)
	assert.InDelta(t, 80.0, alice.UsedSu, 1e-9)
}

package sautil

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

type fakeRunner struct {
	out string
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ ...string) (string, error) {
	return f.out, nil
}

func testCapacityConfig() *util.Config {
	return &util.Config{
		Cluster: "picotte",
		Capacity: []util.NodeClass{
			{Name: "def", Nodes: 74, CoresPerNode: 48, SuPerUnitHour: 1},
			{Name: "gpu", Nodes: 12, GpusPerNode: 4, SuPerUnitHour: 43},
			{Name: "bm", Nodes: 2, MemTiBPerNode: 1.5, SuPerUnitHour: 68},
		},
	}
}

func TestCapacitySu(t *testing.T) {
	cfg := testCapacityConfig()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0) // 31 days

	hours := 31.0 * 24.0
	want := 74*48*hours*1 + 12*4*hours*43 + 2*1.5*hours*68
	assert.InDelta(t, want, capacitySu(cfg, start, end), 1e-6)
}

func TestMonthReportUtilizationPct(t *testing.T) {
	rep := MonthReport{
		Figures:    &slurm.UtilizationFigures{AllocSu: 50, TotalSu: 100},
		CapacitySu: 200,
	}
	assert.InDelta(t, 25.0, rep.UtilizationPct(), 1e-9)
	assert.InDelta(t, 50.0, rep.ReportedPct(), 1e-9)

	// zero capacity must not divide by zero
	empty := MonthReport{Figures: &slurm.UtilizationFigures{}}
	assert.Zero(t, empty.UtilizationPct())
	assert.Zero(t, empty.ReportedPct())
}

func TestFiscalYearStart(t *testing.T) {
	// September 2026 reports back to July 2026 with a July fiscal year
	now := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	start := fiscalYearStart(now, 7)
	assert.Equal(t, 2026, start.Year())
	assert.Equal(t, time.July, start.Month())

	// March 2026 is still fiscal year 2025
	now = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	start = fiscalYearStart(now, 7)
	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, time.July, start.Month())

	// July itself: the previous month (June) belongs to the prior year
	now = time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)
	start = fiscalYearStart(now, 7)
	assert.Equal(t, 2025, start.Year())
}

func TestWriteJsonReport(t *testing.T) {
	reports := []*MonthReport{
		{
			Month:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			Figures:    &slurm.UtilizationFigures{AllocSu: 100, TotalSu: 200},
			CapacitySu: 400,
		},
	}

	var sb strings.Builder
	require.NoError(t, writeJsonReport(&sb, reports))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "2026-07", decoded[0]["month"])
	assert.InDelta(t, 25.0, decoded[0]["util_pct"].(float64), 1e-9)
}

func TestRunUtilizationReportPublishNeedsInflux(t *testing.T) {
	prevConfig, prevClient := config, client
	config = testCapacityConfig()
	client = slurm.NewClient(&fakeRunner{out: "picotte|billing|60|0|0|0|0|60\n"})
	FlagPublish = true
	t.Cleanup(func() {
		config, client = prevConfig, prevClient
		FlagPublish = false
	})

	err := RunUtilizationReport()
	require.Error(t, err)
	var sacctErr *util.SacctError
	require.ErrorAs(t, err, &sacctErr)
	assert.Equal(t, util.ErrorConfig, sacctErr.Code)
}

func TestGpuCapacityHours(t *testing.T) {
	cfg := testCapacityConfig()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0) // 30 days

	// only the gpu class counts
	assert.InDelta(t, 12*4*30*24.0, gpuCapacityHours(cfg, start, end), 1e-6)
}

func TestAggregateGpuHours(t *testing.T) {
	month := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	records := []slurm.JobRecord{
		{JobID: "1", NodeList: "gpu001", Elapsed: "10:00:00",
			AllocTRES: "cpu=12,gres/gpu=2"},
		{JobID: "1.batch", NodeList: "gpu001", Elapsed: "10:00:00",
			AllocTRES: "cpu=12,gres/gpu=2"},
		{JobID: "2", NodeList: "gpu002", Elapsed: "1-00:00:00",
			AllocTRES: "cpu=4,gres/gpu:v100=1"},
		{JobID: "3", NodeList: "gpu003", Elapsed: "05:00:00",
			AllocTRES: "cpu=48"}, // no GPUs allocated
		{JobID: "4", NodeList: slurm.NoneAssigned, Elapsed: "00:00:00",
			AllocTRES: "gres/gpu=8"},
		{JobID: "5", NodeList: "gpu004", Elapsed: "garbage",
			AllocTRES: "gres/gpu=1"},
	}

	agg := aggregateGpuHours(records, month, 1000)
	require.NotNil(t, agg)
	assert.Equal(t, 2, agg.Jobs)
	assert.Equal(t, 1, agg.SkippedNoElapsed)
	// 2 GPUs x 10 h + 1 GPU x 24 h
	assert.InDelta(t, 44.0, agg.GpuHours, 1e-9)
	assert.InDelta(t, 4.4, agg.UtilizationPct(), 1e-9)
}

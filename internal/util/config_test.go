package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
cluster: picotte
data_dir: /tmp/slurmacct
skip_accounts: [testprj, benchprj]
partition_sets:
  - name: def
    partitions: [def, long]
  - name: gpu
    partitions: [gpu, gpulong]
capacity:
  - name: def
    nodes: 74
    cores_per_node: 48
    su_per_unit_hour: 1
  - name: gpu
    nodes: 12
    gpus_per_node: 4
    su_per_unit_hour: 43
  - name: bm
    nodes: 2
    mem_tib_per_node: 1.5
    su_per_unit_hour: 68
billing:
  rate_per_su: 0.0123
  active_floor: 10.0
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "picotte", cfg.Cluster)
	assert.Equal(t, []string{"testprj", "benchprj"}, cfg.SkipAccounts)
	require.Len(t, cfg.PartitionSets, 2)
	assert.Equal(t, []string{"gpu", "gpulong"}, cfg.PartitionSets[1].Partitions)

	// defaults fill in what the file omits
	assert.Equal(t, 7, cfg.FiscalYearStartMonth)
	assert.NotEmpty(t, cfg.Fields)
	assert.Nil(t, cfg.InfluxDB)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidateConfigRejectsBadCapacity(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	require.NoError(t, err)

	cfg.Capacity[0].SuPerUnitHour = 0
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsDuplicateSets(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	require.NoError(t, err)

	cfg.PartitionSets[1].Name = "def"
	assert.Error(t, ValidateConfig(cfg))
}

func TestNodeClassCapacity(t *testing.T) {
	def := NodeClass{Name: "def", Nodes: 74, CoresPerNode: 48, SuPerUnitHour: 1}
	// 74 nodes x 48 cores x 24 h x 1 SU
	assert.InDelta(t, 85248.0, def.SuForHours(24), 1e-9)

	gpu := NodeClass{Name: "gpu", Nodes: 12, GpusPerNode: 4, SuPerUnitHour: 43}
	assert.InDelta(t, 12*4*24*43.0, gpu.SuForHours(24), 1e-9)

	bm := NodeClass{Name: "bm", Nodes: 2, MemTiBPerNode: 1.5, SuPerUnitHour: 68}
	assert.InDelta(t, 2*1.5*24*68.0, bm.SuForHours(24), 1e-9)
}

func TestPartitionSetByName(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, testConfig))
	require.NoError(t, err)

	assert.NotNil(t, cfg.PartitionSetByName("gpu"))
	assert.Nil(t, cfg.PartitionSetByName("missing"))
	assert.NotNil(t, cfg.NodeClassByName("bm"))
	assert.Nil(t, cfg.NodeClassByName("missing"))
}

package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sacctJsonSample = `{
  "jobs": [
    {
      "job_id": 123,
      "name": "train",
      "user": "alice",
      "account": "physicsprj",
      "partition": "gpu",
      "nodes": "gpu001",
      "state": {"current": "COMPLETED"},
      "exit_code": {"return_code": 0, "signal": {"signal_id": 0}},
      "time": {"elapsed": 93600},
      "required": {"memory": "192G"},
      "tres": {
        "requested": [
          {"type": "cpu", "count": 12},
          {"type": "gres", "name": "gpu", "count": 2}
        ],
        "allocated": [
          {"type": "cpu", "count": 12},
          {"type": "gres", "name": "gpu", "count": 2}
        ]
      }
    },
    {
      "job_id": 124,
      "name": "solve",
      "user": "bob",
      "account": "mathprj",
      "partition": "def",
      "nodes": "",
      "state": {"current": "CANCELLED"},
      "exit_code": {"return_code": 1, "signal": {"signal_id": 9}},
      "time": {"elapsed": 0},
      "tres": {"requested": [], "allocated": []}
    }
  ]
}`

func TestParseSacctJSON(t *testing.T) {
	records, err := ParseSacctJSON(sacctJsonSample)
	require.NoError(t, err)
	require.Len(t, records, 2)

	job := records[0]
	assert.Equal(t, "123", job.JobID)
	assert.Equal(t, "alice", job.User)
	assert.Equal(t, "1-02:00:00", job.Elapsed)
	assert.Equal(t, "0:0", job.ExitCode)
	assert.Equal(t, "cpu=12,gres/gpu=2", job.AllocTRES)

	gpus, ok := job.AllocGpus()
	assert.True(t, ok)
	assert.Equal(t, 2, gpus)

	cancelled := records[1]
	assert.Equal(t, NoneAssigned, cancelled.NodeList)
	assert.Equal(t, "1:9", cancelled.ExitCode)
	assert.Equal(t, "", cancelled.AllocTRES)
}

func TestParseSacctJSONNoJobs(t *testing.T) {
	_, err := ParseSacctJSON(`{"meta": {}}`)
	assert.Error(t, err)
}

package saexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlurmAcctKit/internal/slurm"
)

func TestParseFilter(t *testing.T) {
	expr, err := ParseFilter("account=physicsprj state!=FAILED")
	require.NoError(t, err)
	require.Len(t, expr.Conditions, 2)
	assert.Equal(t, "account", expr.Conditions[0].Key)
	require.Len(t, expr.Conditions[0].Values, 1)
	assert.Equal(t, "physicsprj", expr.Conditions[0].Values[0].v())
	assert.Equal(t, "!=", expr.Conditions[1].Operator)
}

func TestParseFilterWherePrefix(t *testing.T) {
	expr, err := ParseFilter(`where user="alice"`)
	require.NoError(t, err)
	require.Len(t, expr.Conditions, 1)
	assert.Equal(t, "alice", expr.Conditions[0].Values[0].v())
}

func TestParseFilterValueList(t *testing.T) {
	expr, err := ParseFilter("account=physicsprj,mathprj")
	require.NoError(t, err)
	require.Len(t, expr.Conditions, 1)
	require.Len(t, expr.Conditions[0].Values, 2)
	assert.Equal(t, "mathprj", expr.Conditions[0].Values[1].v())

	rec := slurm.JobRecord{Account: "mathprj"}
	assert.True(t, expr.Matches(&rec))
	rec.Account = "chemprj"
	assert.False(t, expr.Matches(&rec))

	negated, err := ParseFilter("account!=physicsprj,mathprj")
	require.NoError(t, err)
	assert.True(t, negated.Matches(&rec))
	rec.Account = "physicsprj"
	assert.False(t, negated.Matches(&rec))
}

func TestParseFilterRejectsUnknownKey(t *testing.T) {
	_, err := ParseFilter("flavor=chocolate")
	assert.Error(t, err)
}

func TestParseFilterRejectsGarbage(t *testing.T) {
	_, err := ParseFilter("===")
	assert.Error(t, err)
}

func TestFilterMatches(t *testing.T) {
	rec := slurm.JobRecord{
		JobID:     "123",
		User:      "alice",
		Account:   "physicsprj",
		Partition: "gpu",
		State:     "CANCELLED by 1000",
	}

	expr, err := ParseFilter("account=physicsprj")
	require.NoError(t, err)
	assert.True(t, expr.Matches(&rec))

	// state comparison ignores the trailing uid
	expr, err = ParseFilter("state=cancelled")
	require.NoError(t, err)
	assert.True(t, expr.Matches(&rec))

	expr, err = ParseFilter("user!=alice")
	require.NoError(t, err)
	assert.False(t, expr.Matches(&rec))

	expr, err = ParseFilter("account=physicsprj partition=def")
	require.NoError(t, err)
	assert.False(t, expr.Matches(&rec))
}

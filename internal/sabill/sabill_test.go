package sabill

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chargeSheetSample = `Cluster,Project,Last name,First name,Email,Is MRI?,Share expiration,Fund-Org code,Monthly credit?,Total charge ($)
picotte,physicsprj,Apple,Alice,alice@example.edu,No,,123456-789,Yes,"1,234.56"
picotte,mathprj,Banana,Bob,bob@example.edu,No,2027-06-30,234567-890,No,$42.00
picotte,physicsprj,Apple,Alice,alice@example.edu,No,,123456-789,Yes,100.44
picotte,tinyprj,Cherry,Carol,carol@example.edu,Yes,,345678-901,No,3.21
`

func TestParseChargeSheet(t *testing.T) {
	rows, err := ParseChargeSheet(strings.NewReader(chargeSheetSample))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, "physicsprj", first.Project)
	assert.Equal(t, "Apple", first.LastName)
	assert.True(t, first.MonthlyCredit)
	assert.False(t, first.IsMri)
	assert.InDelta(t, 1234.56, first.TotalCharge, 1e-9)

	assert.InDelta(t, 42.0, rows[1].TotalCharge, 1e-9)
	assert.True(t, rows[3].IsMri)
}

func TestParseChargeSheetRejectsSchemaDrift(t *testing.T) {
	bad := strings.Replace(chargeSheetSample, "Total charge ($)", "Amount", 1)
	_, err := ParseChargeSheet(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestParseChargeSheetRejectsBadCharge(t *testing.T) {
	bad := strings.Replace(chargeSheetSample, "$42.00", "forty-two", 1)
	_, err := ParseChargeSheet(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestParseDollars(t *testing.T) {
	cases := map[string]float64{
		"$1,234.56": 1234.56,
		"42":        42,
		" $0.01 ":   0.01,
		"":          0,
	}
	for in, want := range cases {
		got, err := parseDollars(in)
		require.NoError(t, err, "input %q", in)
		assert.InDelta(t, want, got, 1e-9, "input %q", in)
	}
}

func TestAggregateCharges(t *testing.T) {
	rows, err := ParseChargeSheet(strings.NewReader(chargeSheetSample))
	require.NoError(t, err)

	totals := AggregateCharges(rows)
	require.Len(t, totals, 3)

	// largest first
	assert.Equal(t, "physicsprj", totals[0].Project)
	assert.InDelta(t, 1335.0, totals[0].Total, 1e-9)
	assert.Equal(t, "Alice Apple", totals[0].Owner)

	assert.Equal(t, "mathprj", totals[1].Project)
	assert.Equal(t, "tinyprj", totals[2].Project)
}

func TestActiveProjects(t *testing.T) {
	rows, err := ParseChargeSheet(strings.NewReader(chargeSheetSample))
	require.NoError(t, err)
	totals := AggregateCharges(rows)

	active := ActiveProjects(totals, 10.0)
	require.Len(t, active, 2)
	for _, p := range active {
		assert.Greater(t, p.Total, 10.0)
	}

	assert.Empty(t, ActiveProjects(totals, 1e6))
}

package sadump

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

type fakeRunner struct {
	out string
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ ...string) (string, error) {
	return f.out, nil
}

const dumpSample = `Cluster - 'picotte':Fairshare=1:QOS='normal'
Account - 'orphanprj':Description='No parent set':Fairshare=10
Parent - 'root'
Account - 'urcfadm':Description='URCF admin':Fairshare=1
Account - 'physicsprj':Description='Physics projects':Fairshare=100
Parent - 'physicsprj'
User - 'alice':DefaultAccount='physicsprj':Fairshare=parent
User - 'bob':DefaultAccount='physicsprj':Fairshare=parent
Parent - 'root'
Account - 'mathprj':Description='Math projects':Fairshare=50
Parent - 'mathprj'
User - 'carol':DefaultAccount='mathprj':Fairshare=parent
`

func setTestDump(t *testing.T) {
	t.Helper()
	prevConfig, prevClient := config, client
	config = &util.Config{Cluster: "picotte"}
	client = slurm.NewClient(&fakeRunner{out: dumpSample})
	t.Cleanup(func() {
		config, client = prevConfig, prevClient
		FlagJson = false
		FlagYaml = false
		FlagOutputFile = ""
	})
}

func mustDump(t *testing.T) *slurm.ClusterDump {
	t.Helper()
	dump, err := fetchDump()
	require.NoError(t, err)
	return dump
}

func TestRenderAccountListPlain(t *testing.T) {
	setTestDump(t)

	content, err := renderAccountList(mustDump(t))
	require.NoError(t, err)
	assert.Equal(t, "mathprj\norphanprj\nphysicsprj\nurcfadm\n", string(content))
}

func TestRenderAccountListJson(t *testing.T) {
	setTestDump(t)
	FlagJson = true

	content, err := renderAccountList(mustDump(t))
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal(content, &names))
	assert.Equal(t, []string{"mathprj", "orphanprj", "physicsprj", "urcfadm"}, names)
}

func TestRenderAccountListYaml(t *testing.T) {
	setTestDump(t)
	FlagYaml = true

	content, err := renderAccountList(mustDump(t))
	require.NoError(t, err)

	var accounts []slurm.Account
	require.NoError(t, yaml.Unmarshal(content, &accounts))
	require.Len(t, accounts, 4)

	physics := accounts[2]
	assert.Equal(t, "physicsprj", physics.Name)
	assert.Equal(t, "root", physics.Parent)
	assert.Equal(t, "100", physics.FairShare)
	assert.Equal(t, []string{"alice", "bob"}, physics.Users)
}

func TestListAccountsOutputFile(t *testing.T) {
	setTestDump(t)
	FlagJson = true
	FlagOutputFile = filepath.Join(t.TempDir(), "accounts.json")

	require.NoError(t, ListAccounts())

	// the file gets the same format as stdout would
	content, err := os.ReadFile(FlagOutputFile)
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal(content, &names))
	assert.Len(t, names, 4)
}

func TestFairshareRows(t *testing.T) {
	setTestDump(t)

	rows := fairshareRows(mustDump(t))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"mathprj", "root", "50", "Math projects", "carol"}, rows[0])
	assert.Equal(t, []string{"orphanprj", "", "10", "No parent set", ""}, rows[1])
	assert.Equal(t, []string{"physicsprj", "root", "100", "Physics projects", "alice,bob"}, rows[2])
	assert.Equal(t, []string{"urcfadm", "root", "1", "URCF admin", ""}, rows[3])
}

func TestBuildAccountTree(t *testing.T) {
	setTestDump(t)

	rendered := buildAccountTree(mustDump(t)).String()
	assert.Contains(t, rendered, "picotte")
	assert.Contains(t, rendered, "physicsprj (fairshare=100)")
	assert.Contains(t, rendered, "alice")
	assert.Contains(t, rendered, "bob")
	assert.Contains(t, rendered, "mathprj (fairshare=50)")

	// accounts parented at the cluster itself still show up
	assert.Contains(t, rendered, "orphanprj (fairshare=10)")
}

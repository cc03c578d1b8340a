/**
 * Copyright (c) 2024 University Research Computing Facility
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package sadump

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/xlab/treeprint"
	"gopkg.in/yaml.v3"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

var (
	config *util.Config
	client *slurm.Client
)

func Preparation() error {
	cfg, err := util.LoadConfig(FlagConfigFilePath)
	if err != nil {
		return util.NewSacctErr(util.ErrorConfig, err.Error())
	}
	config = cfg
	util.AttachLogFile(&config.Log)
	client = slurm.NewClient(slurm.NewRunner())
	return nil
}

func fetchDump() (*slurm.ClusterDump, error) {
	cluster := FlagCluster
	if cluster == "" {
		cluster = config.Cluster
	}

	dump, err := client.DumpCluster(context.Background(), cluster)
	if err != nil {
		return nil, util.NewSacctErr(util.ErrorExec, fmt.Sprintf("Failed to dump cluster %s: %v.", cluster, err))
	}
	return dump, nil
}

// ListAccounts prints the project identifiers, the list the rest of the
// toolkit (and the old manual grep pipeline) consumes. The selected
// format applies to stdout and --output alike.
func ListAccounts() error {
	dump, err := fetchDump()
	if err != nil {
		return err
	}

	content, err := renderAccountList(dump)
	if err != nil {
		return err
	}

	if FlagOutputFile != "" {
		if err := os.WriteFile(FlagOutputFile, content, 0644); err != nil {
			return util.NewSacctErr(util.ErrorIO, fmt.Sprintf("Failed to write account list: %v.", err))
		}
		log.Infof("Wrote %d accounts to %s", len(dump.Accounts), FlagOutputFile)
		return nil
	}

	fmt.Print(string(content))
	return nil
}

// renderAccountList renders sorted names (plain, JSON) or the full
// records in dump order (YAML).
func renderAccountList(dump *slurm.ClusterDump) ([]byte, error) {
	if FlagYaml {
		encoded, err := yaml.Marshal(dump.Accounts)
		if err != nil {
			return nil, util.NewSacctErr(util.ErrorGeneric, err.Error())
		}
		return encoded, nil
	}

	names := dump.AccountNames()
	sort.Strings(names)

	if FlagJson {
		encoded, err := json.Marshal(names)
		if err != nil {
			return nil, util.NewSacctErr(util.ErrorGeneric, err.Error())
		}
		return append(encoded, '\n'), nil
	}

	return []byte(strings.Join(names, "\n") + "\n"), nil
}

// ShowFairShare prints account fairshare and ownership in table form.
func ShowFairShare() error {
	dump, err := fetchDump()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	tableData := fairshareRows(dump)

	if !FlagNoHeader {
		table.SetHeader([]string{"Account", "Parent", "FairShare", "Description", "Users"})
	}
	if !FlagFull && util.IsTerminal() {
		util.TrimTableExcept(&tableData, 0, 1, 2)
	}
	table.AppendBulk(tableData)
	table.Render()
	return nil
}

// fairshareRows returns one row per account, sorted by account name.
func fairshareRows(dump *slurm.ClusterDump) [][]string {
	rows := make([][]string, 0, len(dump.Accounts))
	for _, acct := range dump.Accounts {
		rows = append(rows, []string{
			acct.Name,
			acct.Parent,
			acct.FairShare,
			acct.Description,
			strings.Join(acct.Users, ","),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i][0] < rows[j][0]
	})
	return rows
}

// ShowTree renders the account hierarchy with member users as leaves.
func ShowTree() error {
	dump, err := fetchDump()
	if err != nil {
		return err
	}
	fmt.Print(buildAccountTree(dump).String())
	return nil
}

func buildAccountTree(dump *slurm.ClusterDump) treeprint.Tree {
	byParent := make(map[string][]*slurm.Account)
	for _, acct := range dump.Accounts {
		byParent[acct.Parent] = append(byParent[acct.Parent], acct)
	}
	for _, children := range byParent {
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	}

	tree := treeprint.NewWithRoot(dump.Cluster)
	var addBranch func(branch treeprint.Tree, parent string)
	addBranch = func(branch treeprint.Tree, parent string) {
		for _, acct := range byParent[parent] {
			label := acct.Name
			if acct.FairShare != "" {
				label = fmt.Sprintf("%s (fairshare=%s)", acct.Name, acct.FairShare)
			}
			child := branch.AddBranch(label)
			for _, user := range acct.Users {
				child.AddNode(user)
			}
			addBranch(child, acct.Name)
		}
	}
	addBranch(tree, "root")

	// Accounts parented directly at the cluster, not under root.
	addBranch(tree, "")

	return tree
}

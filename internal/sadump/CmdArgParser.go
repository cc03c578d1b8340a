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
	"github.com/spf13/cobra"

	"SlurmAcctKit/internal/util"
)

var (
	FlagConfigFilePath string
	FlagCluster        string
	FlagOutputFile     string
	FlagJson           bool
	FlagYaml           bool
	FlagNoHeader       bool
	FlagFull           bool
	FlagDebugLevel     string

	RootCmd = &cobra.Command{
		Use:     "sadump",
		Short:   "Dump the cluster's account hierarchy from the accounting database",
		Long:    "",
		Version: util.Version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := util.InitLoggerWithLevelName(FlagDebugLevel); err != nil {
				return util.NewSacctErr(util.ErrorCmdArg, err.Error())
			}
			return Preparation()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ListAccounts()
		},
	}
	treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Show the account hierarchy as a tree with member users",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowTree()
		},
	}
	fairshareCmd = &cobra.Command{
		Use:   "fairshare",
		Short: "Show per-account fairshare, parent and users",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowFairShare()
		},
	}
)

// ParseCmdArgs executes the root command.
func ParseCmdArgs() {
	util.RunEWrapperForLeafCommand(RootCmd)
	util.RunAndHandleExit(RootCmd)
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().StringVarP(&FlagCluster, "cluster", "M", "",
		"Cluster to dump, default is the configured cluster")
	RootCmd.PersistentFlags().StringVar(&FlagDebugLevel, "debug-level", "info",
		"Available debug level: trace, debug, info")
	RootCmd.Flags().StringVarP(&FlagOutputFile, "output", "o", "",
		"Write the account list to this file instead of stdout")
	RootCmd.Flags().BoolVar(&FlagJson, "json", false,
		"Output account list in JSON format")
	RootCmd.Flags().BoolVar(&FlagYaml, "yaml", false,
		"Output full account records in YAML format")
	RootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	RootCmd.AddCommand(treeCmd)

	RootCmd.AddCommand(fairshareCmd)
	fairshareCmd.Flags().BoolVarP(&FlagNoHeader, "noHeader", "N", false,
		"Do not print header line in the output")
	fairshareCmd.Flags().BoolVarP(&FlagFull, "full", "F", false,
		"Display full information without truncation")
}

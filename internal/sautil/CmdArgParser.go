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

package sautil

import (
	"github.com/spf13/cobra"

	"SlurmAcctKit/internal/util"
)

var (
	FlagConfigFilePath string
	FlagStartMonth     string
	FlagEndMonth       string
	FlagFiscalYear     bool
	FlagHtml           bool
	FlagJson           bool
	FlagPublish        bool
	FlagNoHeader       bool
	FlagAccount        string
	FlagPartitionSet   string
	FlagDebugLevel     string

	RootCmd = &cobra.Command{
		Use:     "sautil",
		Short:   "Report cluster SU utilization against configured capacity",
		Long:    "",
		Version: util.Version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := util.InitLoggerWithLevelName(FlagDebugLevel); err != nil {
				return util.NewSacctErr(util.ErrorCmdArg, err.Error())
			}
			return Preparation()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunUtilizationReport()
		},
	}
	accountsCmd = &cobra.Command{
		Use:   "accounts",
		Short: "Report per-account SU usage and cost, largest first",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunAccountReport()
		},
	}
	gpuHoursCmd = &cobra.Command{
		Use:   "gpuhours",
		Short: "Report allocated GPU hours from exported sacct files",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunGpuHoursReport()
		},
	}
)

func ParseCmdArgs() {
	util.RunEWrapperForLeafCommand(RootCmd)
	util.RunAndHandleExit(RootCmd)
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().StringVar(&FlagDebugLevel, "debug-level", "info",
		"Available debug level: trace, debug, info")
	RootCmd.PersistentFlags().StringVarP(&FlagStartMonth, "start", "S", "",
		"First month to report, YYYY-MM")
	RootCmd.PersistentFlags().StringVarP(&FlagEndMonth, "end", "E", "",
		"Last month to report, YYYY-MM, default is the previous month")
	RootCmd.PersistentFlags().BoolVar(&FlagFiscalYear, "fy", false,
		"Report the current fiscal year to date")
	RootCmd.PersistentFlags().BoolVarP(&FlagNoHeader, "noHeader", "N", false,
		"Do not print header line in the output")
	RootCmd.Flags().BoolVar(&FlagHtml, "html", false,
		"Emit the report as an HTML table")
	RootCmd.Flags().BoolVar(&FlagJson, "json", false,
		"Output in JSON format")
	RootCmd.MarkFlagsMutuallyExclusive("html", "json")
	RootCmd.Flags().BoolVar(&FlagPublish, "publish", false,
		"Also write the figures to the configured InfluxDB bucket")

	RootCmd.MarkFlagsMutuallyExclusive("start", "fy")

	RootCmd.AddCommand(accountsCmd)
	accountsCmd.Flags().StringVarP(&FlagAccount, "account", "A", "",
		"Root account to report under, default is the whole tree")

	RootCmd.AddCommand(gpuHoursCmd)
	gpuHoursCmd.Flags().StringVarP(&FlagPartitionSet, "set", "s", "",
		"Partition set whose exports to read, default gpu")
}

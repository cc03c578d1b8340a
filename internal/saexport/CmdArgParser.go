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

package saexport

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"SlurmAcctKit/internal/util"
)

var (
	FlagConfigFilePath string
	FlagStartMonth     string
	FlagEndMonth       string
	FlagPartitionSet   string
	FlagWhere          string
	FlagResume         bool
	FlagJsonSource     bool
	FlagIncludeSteps   bool
	FlagNoHeader       bool
	FlagFull           bool
	FlagBorder         bool
	FlagDebugLevel     string

	RootCmd = &cobra.Command{
		Use:   "saexport",
		Short: "Export monthly sacct job records to per-partition-set files",
		Long: "Queries sacct month by month and writes one pipe-delimited file\n" +
			"per partition set. Without flags the previous calendar month is\n" +
			"exported; --resume continues from the last exported month.",
		Version: util.Version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := util.InitLoggerWithLevelName(FlagDebugLevel); err != nil {
				return util.NewSacctErr(util.ErrorCmdArg, err.Error())
			}
			return Preparation()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunExport()
		},
	}
	showCmd = &cobra.Command{
		Use:   "show export_file",
		Short: "Print a written export file as a table",
		Long:  "",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowExport(args[0])
		},
	}
	validateCmd = &cobra.Command{
		Use:   "validate export_file",
		Short: "Spot-check a written export file for format drift",
		Long:  "",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ValidateExportFile(args[0])
		},
	}
)

func ParseCmdArgs() {
	util.RunEWrapperForLeafCommand(RootCmd)
	util.RunAndHandleExit(RootCmd)
}

func init() {
	RootCmd.SetVersionTemplate(util.VersionTemplate())
	RootCmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		// Accept the underscore spellings the old cron scripts used.
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	RootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "C",
		util.DefaultConfigPath, "Path to configuration file")
	RootCmd.PersistentFlags().StringVar(&FlagDebugLevel, "debug-level", "info",
		"Available debug level: trace, debug, info")
	RootCmd.Flags().StringVarP(&FlagStartMonth, "start", "S", "",
		"First month to export, YYYY-MM")
	RootCmd.Flags().StringVarP(&FlagEndMonth, "end", "E", "",
		"Last month to export, YYYY-MM, default is the previous month")
	RootCmd.Flags().StringVarP(&FlagPartitionSet, "set", "s", "",
		"Export only this partition set")
	RootCmd.Flags().StringVarP(&FlagWhere, "where", "w", "",
		"Filter records, e.g. 'account=physicsprj state!=FAILED'")
	RootCmd.Flags().BoolVarP(&FlagResume, "resume", "r", false,
		"Export every month after the recorded watermark")
	RootCmd.Flags().BoolVar(&FlagJsonSource, "json", false,
		"Query sacct with --json instead of pipe-delimited output")
	RootCmd.Flags().BoolVar(&FlagIncludeSteps, "include-steps", false,
		"Keep job step records instead of only whole-job rows")

	RootCmd.MarkFlagsMutuallyExclusive("start", "resume")

	RootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVarP(&FlagNoHeader, "noHeader", "N", false,
		"Do not print header line in the output")
	showCmd.Flags().BoolVarP(&FlagFull, "full", "F", false,
		"Display full information without truncation")
	showCmd.Flags().BoolVarP(&FlagBorder, "border", "b", false,
		"Draw table borders")

	RootCmd.AddCommand(validateCmd)
}

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

package sabill

import (
	"github.com/spf13/cobra"

	"SlurmAcctKit/internal/util"
)

var (
	FlagConfigFilePath string
	FlagOutputFile     string
	FlagPeriod         string
	FlagJson           bool
	FlagNoHeader       bool
	FlagActiveOnly     bool
	FlagActiveFloor    float64
	FlagDebugLevel     string

	RootCmd = &cobra.Command{
		Use:   "sabill charge_sheet.csv [charge_sheet.csv...]",
		Short: "Aggregate monthly charge sheets into per-project totals",
		Long: "Reads billing office charge sheets, sums the total charge per\n" +
			"project and prints the projects largest first.",
		Version: util.Version(),
		Args:    cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := util.InitLoggerWithLevelName(FlagDebugLevel); err != nil {
				return util.NewSacctErr(util.ErrorCmdArg, err.Error())
			}
			return Preparation()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunBilling(args)
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
	RootCmd.Flags().StringVarP(&FlagOutputFile, "output", "o", "",
		"Write the report to this file instead of stdout")
	RootCmd.Flags().StringVarP(&FlagPeriod, "period", "p", "",
		"Billing period label recorded in JSON output, e.g. 2026-07")
	RootCmd.Flags().BoolVar(&FlagJson, "json", false,
		"Output in JSON format with report metadata")
	RootCmd.Flags().BoolVarP(&FlagNoHeader, "noHeader", "N", false,
		"Do not print header line in the output")
	RootCmd.Flags().BoolVarP(&FlagActiveOnly, "active", "a", false,
		"Keep only projects charged more than the active floor")
	RootCmd.Flags().Float64Var(&FlagActiveFloor, "active-floor", -1,
		"Override the configured active floor in dollars")
}

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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

var (
	config *util.Config
	client *slurm.Client
	filter *FilterExpr
)

func Preparation() error {
	cfg, err := util.LoadConfig(FlagConfigFilePath)
	if err != nil {
		return util.NewSacctErr(util.ErrorConfig, err.Error())
	}
	config = cfg
	util.AttachLogFile(&config.Log)

	if len(config.PartitionSets) == 0 {
		return util.NewSacctErr(util.ErrorConfig, "No partition sets configured, nothing to export.")
	}

	if FlagWhere != "" {
		expr, err := ParseFilter(FlagWhere)
		if err != nil {
			return util.NewSacctErr(util.ErrorCmdArg, fmt.Sprintf("Invalid where expression: %v.", err))
		}
		filter = expr
	}

	client = slurm.NewClient(slurm.NewRunner())
	return nil
}

// exportMonths resolves the month range to export. Precedence: explicit
// -S/-E flags, then the state file watermark under --resume, then the
// previous calendar month.
func exportMonths() ([]time.Time, error) {
	now := time.Now()

	if FlagStartMonth != "" {
		start, err := util.ParseYearMonth(FlagStartMonth)
		if err != nil {
			return nil, util.NewSacctErr(util.ErrorCmdArg, err.Error())
		}
		end := util.PreviousMonth(now)
		if FlagEndMonth != "" {
			if end, err = util.ParseYearMonth(FlagEndMonth); err != nil {
				return nil, util.NewSacctErr(util.ErrorCmdArg, err.Error())
			}
		}
		if end.Before(start) {
			return nil, util.NewSacctErr(util.ErrorCmdArg,
				fmt.Sprintf("End month %s is before start month %s.",
					end.Format("2006-01"), start.Format("2006-01")))
		}
		return util.MonthsBetween(start, end), nil
	}
	if FlagEndMonth != "" {
		return nil, util.NewSacctErr(util.ErrorCmdArg, "--end requires --start.")
	}

	if FlagResume {
		state := util.NewStateFile(statePath())
		if state == nil {
			return nil, util.NewSacctErr(util.ErrorIO, "Cannot open export state file.")
		}
		if err := state.Load(); err != nil {
			return nil, util.NewSacctErr(util.ErrorIO, err.Error())
		}
		last := state.LastExported()
		if last == "" {
			// First run, nothing to resume from.
			return []time.Time{util.PreviousMonth(now)}, nil
		}
		watermark, err := util.ParseYearMonth(last)
		if err != nil {
			return nil, util.NewSacctErr(util.ErrorIO,
				fmt.Sprintf("Corrupt state file: %v.", err))
		}
		start := watermark.AddDate(0, 1, 0)
		end := util.PreviousMonth(now)
		if end.Before(start) {
			log.Infof("Nothing to export, watermark %s is current", last)
			return nil, nil
		}
		return util.MonthsBetween(start, end), nil
	}

	return []time.Time{util.PreviousMonth(now)}, nil
}

func statePath() string {
	return filepath.Join(config.DataDir, "export_state.json")
}

// RunExport writes one sacct export file per partition set per month.
func RunExport() error {
	months, err := exportMonths()
	if err != nil {
		return err
	}
	if len(months) == 0 {
		return nil
	}

	sets := config.PartitionSets
	if FlagPartitionSet != "" {
		set := config.PartitionSetByName(FlagPartitionSet)
		if set == nil {
			return util.NewSacctErr(util.ErrorCmdArg,
				fmt.Sprintf("Unknown partition set: %s.", FlagPartitionSet))
		}
		sets = []util.PartitionSet{*set}
	}

	for _, month := range months {
		for i := range sets {
			if err := exportOne(&sets[i], month); err != nil {
				return err
			}
		}
		// Advance the watermark only for complete runs; a filtered or
		// partial export must never mark the month as done.
		if FlagStartMonth == "" && FlagPartitionSet == "" && filter == nil {
			if err := advanceWatermark(month); err != nil {
				return err
			}
		}
	}
	return nil
}

func advanceWatermark(month time.Time) error {
	state := util.NewStateFile(statePath())
	if state == nil {
		return util.NewSacctErr(util.ErrorIO, "Cannot open export state file.")
	}
	if err := state.Load(); err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	state.SetLastExported(month.Format("2006-01"))
	if err := state.Save(); err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	return nil
}

func exportOne(set *util.PartitionSet, month time.Time) error {
	start := month
	end := month.AddDate(0, 1, 0)
	ctx := context.Background()

	var records []slurm.JobRecord
	var err error
	if FlagJsonSource {
		records, err = client.QueryJobsJSON(ctx, set.Partitions, start, end)
	} else {
		records, err = client.QueryJobs(ctx, set.Partitions, start, end, config.Fields)
	}
	if err != nil {
		return util.NewSacctErr(util.ErrorExec,
			fmt.Sprintf("sacct query for set %s, month %s failed: %v.",
				set.Name, month.Format("2006-01"), err))
	}

	kept := filterRecords(records)

	path := exportPath(set.Name, month)
	if err := writeExportFile(path, kept); err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	log.Infof("Exported %d of %d records for set %s, month %s to %s",
		len(kept), len(records), set.Name, month.Format("2006-01"), path)
	return nil
}

// filterRecords drops job steps, unscheduled jobs and skip-listed
// accounts, then applies the user's where expression.
func filterRecords(records []slurm.JobRecord) []slurm.JobRecord {
	skip := make(map[string]bool, len(config.SkipAccounts))
	for _, acct := range config.SkipAccounts {
		skip[acct] = true
	}

	var kept []slurm.JobRecord
	for i := range records {
		rec := &records[i]
		if rec.IsStep() && !FlagIncludeSteps {
			continue
		}
		if rec.NodeList == slurm.NoneAssigned {
			continue
		}
		if skip[rec.Account] {
			continue
		}
		if filter != nil && !filter.Matches(rec) {
			continue
		}
		kept = append(kept, *rec)
	}
	return kept
}

func exportPath(setName string, month time.Time) string {
	name := fmt.Sprintf("sacct_%s_%s.csv", setName, month.Format("200601"))
	return filepath.Join(config.DataDir, name)
}

// writeExportFile writes atomically via a temp file in the same
// directory, so a crashed run never leaves a truncated export behind.
func writeExportFile(path string, records []slurm.JobRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	fieldNames := slurm.FieldNames(config.Fields)
	var sb strings.Builder
	sb.WriteString(slurm.FormatSacctHeader(config.Fields))
	sb.WriteByte('\n')
	for i := range records {
		sb.WriteString(slurm.FormatSacctRow(&records[i], fieldNames))
		sb.WriteByte('\n')
	}

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadExportFile loads a previously written export, used by the
// reporting tools so they never need to re-query sacct.
func ReadExportFile(path string) ([]slurm.JobRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return slurm.ParseSacctOutput(file)
}

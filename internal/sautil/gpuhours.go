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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

// GpuMonth aggregates allocated GPU hours for one month of one export
// set against the configured GPU capacity.
type GpuMonth struct {
	Month            time.Time
	Jobs             int
	SkippedNoElapsed int
	GpuHours         float64
	CapacityHours    float64
}

func (g *GpuMonth) UtilizationPct() float64 {
	if g.CapacityHours == 0 {
		return 0
	}
	return 100 * g.GpuHours / g.CapacityHours
}

// gpuCapacityHours sums GPU hours every GPU node class can deliver.
func gpuCapacityHours(cfg *util.Config, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	total := 0.0
	for i := range cfg.Capacity {
		class := &cfg.Capacity[i]
		if class.GpusPerNode > 0 {
			total += float64(class.Nodes*class.GpusPerNode) * hours
		}
	}
	return total
}

// aggregateGpuHours computes GPU hours as allocated GPUs times elapsed
// time, per whole-job record. Records without a gres/gpu entry never
// count, even for zero; absence means the job ran without GPUs.
func aggregateGpuHours(records []slurm.JobRecord, month time.Time, capacity float64) *GpuMonth {
	agg := &GpuMonth{Month: month, CapacityHours: capacity}
	for i := range records {
		rec := &records[i]
		if rec.IsStep() || rec.NodeList == slurm.NoneAssigned {
			continue
		}
		gpus, ok := rec.AllocGpus()
		if !ok || gpus == 0 {
			continue
		}
		elapsed, err := rec.ElapsedDuration()
		if err != nil {
			agg.SkippedNoElapsed++
			log.Debugf("Job %s has unparseable elapsed %q", rec.JobID, rec.Elapsed)
			continue
		}
		agg.Jobs++
		agg.GpuHours += float64(gpus) * elapsed.Hours()
	}
	return agg
}

// RunGpuHoursReport reads previously exported files for the GPU
// partition set and reports allocated GPU hours per month.
func RunGpuHoursReport() error {
	months, err := reportMonths()
	if err != nil {
		return err
	}

	setName := FlagPartitionSet
	if setName == "" {
		setName = "gpu"
	}
	if config.PartitionSetByName(setName) == nil {
		return util.NewSacctErr(util.ErrorCmdArg,
			fmt.Sprintf("Unknown partition set: %s.", setName))
	}

	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"Month", "Jobs", "GPUHours", "CapacityHours", "Util"})
	}

	var totalAgg GpuMonth
	for _, month := range months {
		path := filepath.Join(config.DataDir,
			fmt.Sprintf("sacct_%s_%s.csv", setName, month.Format("200601")))
		file, err := os.Open(path)
		if err != nil {
			return util.NewSacctErr(util.ErrorIO,
				fmt.Sprintf("Missing export file %s, run saexport first: %v.", path, err))
		}
		records, err := slurm.ParseSacctOutput(file)
		file.Close()
		if err != nil {
			return util.NewSacctErr(util.ErrorParse,
				fmt.Sprintf("Cannot parse %s: %v.", path, err))
		}

		capacity := gpuCapacityHours(config, month, month.AddDate(0, 1, 0))
		agg := aggregateGpuHours(records, month, capacity)
		if agg.SkippedNoElapsed > 0 {
			log.Warnf("Skipped %d records with bad elapsed in %s",
				agg.SkippedNoElapsed, path)
		}
		table.Append([]string{
			month.Format("2006-01"),
			fmt.Sprintf("%d", agg.Jobs),
			fmt.Sprintf("%.1f", agg.GpuHours),
			fmt.Sprintf("%.0f", agg.CapacityHours),
			fmt.Sprintf("%.1f%%", agg.UtilizationPct()),
		})
		totalAgg.Jobs += agg.Jobs
		totalAgg.GpuHours += agg.GpuHours
		totalAgg.CapacityHours += agg.CapacityHours
	}

	if len(months) > 1 {
		table.Append([]string{
			"Total",
			fmt.Sprintf("%d", totalAgg.Jobs),
			fmt.Sprintf("%.1f", totalAgg.GpuHours),
			fmt.Sprintf("%.0f", totalAgg.CapacityHours),
			fmt.Sprintf("%.1f%%", totalAgg.UtilizationPct()),
		})
	}
	table.Render()
	return nil
}

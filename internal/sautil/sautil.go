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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

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

// MonthReport is one month's utilization against configured capacity.
type MonthReport struct {
	Month      time.Time
	Figures    *slurm.UtilizationFigures
	CapacitySu float64
}

func (r *MonthReport) UtilizationPct() float64 {
	if r.CapacitySu == 0 {
		return 0
	}
	return 100 * r.Figures.AllocSu / r.CapacitySu
}

func (r *MonthReport) ReportedPct() float64 {
	if r.Figures.TotalSu == 0 {
		return 0
	}
	return 100 * r.Figures.AllocSu / r.Figures.TotalSu
}

// capacitySu is the SUs every configured node class can deliver over the
// given period.
func capacitySu(cfg *util.Config, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	total := 0.0
	for i := range cfg.Capacity {
		total += cfg.Capacity[i].SuForHours(hours)
	}
	return total
}

func reportMonths() ([]time.Time, error) {
	now := time.Now()

	if FlagFiscalYear {
		start := fiscalYearStart(now, config.FiscalYearStartMonth)
		return util.MonthsBetween(start, util.PreviousMonth(now)), nil
	}

	if FlagStartMonth == "" {
		if FlagEndMonth != "" {
			return nil, util.NewSacctErr(util.ErrorCmdArg, "--end requires --start.")
		}
		return []time.Time{util.PreviousMonth(now)}, nil
	}

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

// fiscalYearStart returns the start of the fiscal year containing the
// month before now.
func fiscalYearStart(now time.Time, startMonth int) time.Time {
	ref := util.PreviousMonth(now)
	year := ref.Year()
	if int(ref.Month()) < startMonth {
		year--
	}
	return time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, ref.Location())
}

// RunUtilizationReport prints per-month cluster SU utilization, with a
// cumulative row when the range covers more than one month.
func RunUtilizationReport() error {
	months, err := reportMonths()
	if err != nil {
		return err
	}

	reports := make([]*MonthReport, 0, len(months))
	for _, month := range months {
		start := month
		end := month.AddDate(0, 1, 0)
		figures, err := client.ClusterUtilization(context.Background(), start, end)
		if err != nil {
			return util.NewSacctErr(util.ErrorExec,
				fmt.Sprintf("sreport for %s failed: %v.", month.Format("2006-01"), err))
		}
		reports = append(reports, &MonthReport{
			Month:      month,
			Figures:    figures,
			CapacitySu: capacitySu(config, start, end),
		})
	}

	if FlagPublish {
		if config.InfluxDB == nil {
			return util.NewSacctErr(util.ErrorConfig,
				"--publish requires an influxdb section in the configuration file.")
		}
		if err := publishReports(reports); err != nil {
			return err
		}
	}

	if FlagHtml {
		return writeHtmlReport(os.Stdout, reports)
	}
	if FlagJson {
		return writeJsonReport(os.Stdout, reports)
	}
	printReportTable(reports)
	return nil
}

func writeJsonReport(w io.Writer, reports []*MonthReport) error {
	type monthJson struct {
		Month      string  `json:"month"`
		AllocSu    float64 `json:"alloc_su"`
		IdleSu     float64 `json:"idle_su"`
		DownSu     float64 `json:"down_su"`
		ReservedSu float64 `json:"reserved_su"`
		ReportedSu float64 `json:"reported_su"`
		CapacitySu float64 `json:"capacity_su"`
		UtilPct    float64 `json:"util_pct"`
	}
	rows := make([]monthJson, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, monthJson{
			Month:      rep.Month.Format("2006-01"),
			AllocSu:    rep.Figures.AllocSu,
			IdleSu:     rep.Figures.IdleSu,
			DownSu:     rep.Figures.TotalDownSu(),
			ReservedSu: rep.Figures.ReservedSu,
			ReportedSu: rep.Figures.TotalSu,
			CapacitySu: rep.CapacitySu,
			UtilPct:    rep.UtilizationPct(),
		})
	}
	encoder := json.NewEncoder(w)
	return encoder.Encode(rows)
}

func reportRow(label string, figures *slurm.UtilizationFigures, capacity float64) []string {
	utilPct := 0.0
	if capacity > 0 {
		utilPct = 100 * figures.AllocSu / capacity
	}
	return []string{
		label,
		fmt.Sprintf("%.0f", figures.AllocSu),
		fmt.Sprintf("%.0f", figures.IdleSu),
		fmt.Sprintf("%.0f", figures.TotalDownSu()),
		fmt.Sprintf("%.0f", figures.ReservedSu),
		fmt.Sprintf("%.0f", figures.TotalSu),
		fmt.Sprintf("%.0f", capacity),
		fmt.Sprintf("%.1f%%", utilPct),
	}
}

func printReportTable(reports []*MonthReport) {
	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"Month", "AllocSU", "IdleSU", "DownSU",
			"ReservedSU", "ReportedSU", "CapacitySU", "Util"})
	}

	cumulative := slurm.UtilizationFigures{}
	cumulativeCap := 0.0
	for _, rep := range reports {
		table.Append(reportRow(rep.Month.Format("2006-01"), rep.Figures, rep.CapacitySu))
		cumulative.AllocSu += rep.Figures.AllocSu
		cumulative.DownSu += rep.Figures.DownSu
		cumulative.PlannedDownSu += rep.Figures.PlannedDownSu
		cumulative.IdleSu += rep.Figures.IdleSu
		cumulative.ReservedSu += rep.Figures.ReservedSu
		cumulative.TotalSu += rep.Figures.TotalSu
		cumulativeCap += rep.CapacitySu
	}
	if len(reports) > 1 {
		table.Append(reportRow("Total", &cumulative, cumulativeCap))
	}
	table.Render()
}

// RunAccountReport prints per-account SU usage over the report range,
// sorted by usage descending.
func RunAccountReport() error {
	months, err := reportMonths()
	if err != nil {
		return err
	}
	start := months[0]
	end := months[len(months)-1].AddDate(0, 1, 0)

	rootAccount := FlagAccount
	if rootAccount == "" {
		rootAccount = "root"
	}

	usages, err := client.AccountUtilization(context.Background(), rootAccount, start, end)
	if err != nil {
		return util.NewSacctErr(util.ErrorExec, fmt.Sprintf("sreport failed: %v.", err))
	}

	skip := make(map[string]bool, len(config.SkipAccounts))
	for _, acct := range config.SkipAccounts {
		skip[acct] = true
	}

	// Keep only account rollup rows, identified by an empty Login.
	totals := make(map[string]float64)
	for i := range usages {
		u := &usages[i]
		if u.Login != "" || skip[u.Account] {
			continue
		}
		totals[u.Account] += u.UsedSu
	}

	accounts := make([]string, 0, len(totals))
	for acct := range totals {
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if totals[accounts[i]] != totals[accounts[j]] {
			return totals[accounts[i]] > totals[accounts[j]]
		}
		return accounts[i] < accounts[j]
	})

	table := tablewriter.NewWriter(os.Stdout)
	util.SetBorderlessTable(table)
	if !FlagNoHeader {
		table.SetHeader([]string{"Account", "UsedSU", "Cost"})
	}
	for _, acct := range accounts {
		table.Append([]string{
			acct,
			fmt.Sprintf("%.0f", totals[acct]),
			fmt.Sprintf("$%.2f", totals[acct]*config.Billing.RatePerSu),
		})
	}
	table.Render()

	log.Debugf("Reported %d accounts from %s to %s",
		len(accounts), start.Format("2006-01"), end.Format("2006-01"))
	return nil
}

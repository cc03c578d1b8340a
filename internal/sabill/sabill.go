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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"SlurmAcctKit/internal/util"
)

var config *util.Config

func Preparation() error {
	cfg, err := util.LoadConfig(FlagConfigFilePath)
	if err != nil {
		return util.NewSacctErr(util.ErrorConfig, err.Error())
	}
	config = cfg
	util.AttachLogFile(&config.Log)
	return nil
}

// ChargeRow is one line of a monthly charge sheet as exported by the
// billing office.
type ChargeRow struct {
	Cluster       string
	Project       string
	LastName      string
	FirstName     string
	Email         string
	IsMri         bool
	ShareExpiry   string
	FundOrgCode   string
	MonthlyCredit bool
	TotalCharge   float64
}

// charge sheet column names, in the order the billing office emits them
var chargeColumns = []string{
	"Cluster", "Project", "Last name", "First name", "Email",
	"Is MRI?", "Share expiration", "Fund-Org code",
	"Monthly credit?", "Total charge ($)",
}

// ParseChargeSheet reads one charge sheet. The header is validated
// against the expected columns so a schema drift fails loudly instead
// of silently summing the wrong column.
func ParseChargeSheet(r io.Reader) ([]ChargeRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(chargeColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read charge sheet header: %w", err)
	}
	for i, want := range chargeColumns {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("charge sheet column %d is %q, want %q",
				i, header[i], want)
		}
	}

	var rows []ChargeRow
	lineNo := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		charge, err := parseDollars(record[9])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad charge %q: %w", lineNo, record[9], err)
		}
		rows = append(rows, ChargeRow{
			Cluster:       record[0],
			Project:       record[1],
			LastName:      record[2],
			FirstName:     record[3],
			Email:         record[4],
			IsMri:         parseYesNo(record[5]),
			ShareExpiry:   record[6],
			FundOrgCode:   record[7],
			MonthlyCredit: parseYesNo(record[8]),
			TotalCharge:   charge,
		})
	}
	return rows, nil
}

func parseDollars(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// ProjectTotal is the aggregated charge for one project across every
// sheet read in.
type ProjectTotal struct {
	Project     string  `json:"project"`
	Owner       string  `json:"owner"`
	Email       string  `json:"email"`
	FundOrgCode string  `json:"fund_org_code"`
	Total       float64 `json:"total_charge"`
}

// AggregateCharges sums charges per project. Owner details come from
// the first row seen for the project; sheets repeat them on every line.
func AggregateCharges(rows []ChargeRow) []ProjectTotal {
	index := make(map[string]int)
	var totals []ProjectTotal
	for i := range rows {
		row := &rows[i]
		at, ok := index[row.Project]
		if !ok {
			at = len(totals)
			index[row.Project] = at
			totals = append(totals, ProjectTotal{
				Project:     row.Project,
				Owner:       strings.TrimSpace(row.FirstName + " " + row.LastName),
				Email:       row.Email,
				FundOrgCode: row.FundOrgCode,
			})
		}
		totals[at].Total += row.TotalCharge
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Project < totals[j].Project
	})
	return totals
}

// ActiveProjects keeps projects whose total charge exceeds the floor.
// Accounts below it are considered dormant and excluded from invoicing.
func ActiveProjects(totals []ProjectTotal, floor float64) []ProjectTotal {
	var active []ProjectTotal
	for _, t := range totals {
		if t.Total > floor {
			active = append(active, t)
		}
	}
	return active
}

// RunBilling reads every charge sheet named on the command line,
// aggregates per project and emits CSV or JSON.
func RunBilling(paths []string) error {
	var rows []ChargeRow
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return util.NewSacctErr(util.ErrorIO, err.Error())
		}
		sheet, err := ParseChargeSheet(file)
		file.Close()
		if err != nil {
			return util.NewSacctErr(util.ErrorParse,
				fmt.Sprintf("Cannot parse %s: %v.", path, err))
		}
		rows = append(rows, sheet...)
	}
	log.Debugf("Read %d charge rows from %d sheets", len(rows), len(paths))

	totals := AggregateCharges(rows)
	if FlagActiveOnly {
		floor := config.Billing.ActiveFloor
		if FlagActiveFloor >= 0 {
			floor = FlagActiveFloor
		}
		totals = ActiveProjects(totals, floor)
	}

	out := os.Stdout
	if FlagOutputFile != "" {
		file, err := os.Create(FlagOutputFile)
		if err != nil {
			return util.NewSacctErr(util.ErrorIO, err.Error())
		}
		defer file.Close()
		out = file
	}

	if FlagJson {
		return emitJson(out, totals)
	}
	return emitCsv(out, totals)
}

func emitCsv(w io.Writer, totals []ProjectTotal) error {
	writer := csv.NewWriter(w)
	if !FlagNoHeader {
		if err := writer.Write([]string{"Project", "Owner", "Email",
			"Fund-Org code", "Total charge ($)"}); err != nil {
			return util.NewSacctErr(util.ErrorIO, err.Error())
		}
	}
	for _, t := range totals {
		err := writer.Write([]string{
			t.Project, t.Owner, t.Email, t.FundOrgCode,
			strconv.FormatFloat(t.Total, 'f', 2, 64),
		})
		if err != nil {
			return util.NewSacctErr(util.ErrorIO, err.Error())
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	return nil
}

// emitJson wraps the project list with report metadata the downstream
// invoicing jobs expect.
func emitJson(w io.Writer, totals []ProjectTotal) error {
	encoded, err := json.Marshal(totals)
	if err != nil {
		return util.NewSacctErr(util.ErrorGeneric, err.Error())
	}

	doc := `{}`
	doc, _ = sjson.Set(doc, "cluster", config.Cluster)
	doc, _ = sjson.Set(doc, "generated_at", time.Now().Format(time.RFC3339))
	if FlagPeriod != "" {
		doc, _ = sjson.Set(doc, "period", FlagPeriod)
	}
	doc, _ = sjson.Set(doc, "rate_per_su", config.Billing.RatePerSu)
	doc, _ = sjson.SetRaw(doc, "projects", string(encoded))

	if _, err := fmt.Fprintln(w, doc); err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	return nil
}

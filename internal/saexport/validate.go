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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

// ValidationReport summarizes a spot-check of one export file.
type ValidationReport struct {
	Records    int
	Steps      int
	Unassigned int
	// Job IDs whose Elapsed value does not parse.
	BadElapsed []string
}

// ValidateExportFile spot-checks a written export: the header must match
// the configured field list and every Elapsed value must parse. Step and
// "None assigned" rows are reported but do not fail the check; they are
// legitimate under --include-steps.
func ValidateExportFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}
	defer file.Close()

	report, err := validateExport(file, config.Fields)
	if err != nil {
		return util.NewSacctErr(util.ErrorParse,
			fmt.Sprintf("%s: %v.", path, err))
	}

	if report.Steps > 0 {
		log.Warnf("%s contains %d step rows", path, report.Steps)
	}
	if report.Unassigned > 0 {
		log.Warnf("%s contains %d unscheduled rows", path, report.Unassigned)
	}
	if len(report.BadElapsed) > 0 {
		return util.NewSacctErr(util.ErrorParse,
			fmt.Sprintf("%s: %d records with unparseable elapsed, first is job %s.",
				path, len(report.BadElapsed), report.BadElapsed[0]))
	}

	log.Infof("%s: %d records OK", path, report.Records)
	return nil
}

func validateExport(r io.Reader, fields []string) (*ValidationReport, error) {
	buffered := bufio.NewReader(r)
	headerLine, err := buffered.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if got, want := strings.TrimRight(headerLine, "\n"), slurm.FormatSacctHeader(fields); got != want {
		return nil, fmt.Errorf("header is %q, want %q", got, want)
	}

	records, err := slurm.ParseSacctOutput(
		io.MultiReader(strings.NewReader(headerLine), buffered))
	if err != nil {
		return nil, err
	}

	checkElapsed := false
	for _, name := range slurm.FieldNames(fields) {
		if name == "Elapsed" {
			checkElapsed = true
		}
	}

	report := &ValidationReport{Records: len(records)}
	for i := range records {
		rec := &records[i]
		if rec.IsStep() {
			report.Steps++
		}
		if rec.NodeList == slurm.NoneAssigned {
			report.Unassigned++
		}
		if checkElapsed {
			if _, err := rec.ElapsedDuration(); err != nil {
				report.BadElapsed = append(report.BadElapsed, rec.JobID)
			}
		}
	}
	return report, nil
}

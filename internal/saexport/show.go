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
	"os"

	"github.com/olekukonko/tablewriter"

	"SlurmAcctKit/internal/slurm"
	"SlurmAcctKit/internal/util"
)

// ShowExport prints a written export file as a table, honoring the
// configured Field%width column specs.
func ShowExport(path string) error {
	records, err := ReadExportFile(path)
	if err != nil {
		return util.NewSacctErr(util.ErrorIO, err.Error())
	}

	header, data := exportTableData(records, config.Fields)
	if !FlagFull && util.IsTerminal() {
		util.TrimTable(&data)
	}
	header, data = util.FormatTable(slurm.FieldWidths(config.Fields), header, data)

	table := tablewriter.NewWriter(os.Stdout)
	if FlagBorder {
		util.SetBorderTable(table)
	} else {
		util.SetBorderlessTable(table)
	}
	if !FlagNoHeader {
		table.SetHeader(header)
	}
	table.AppendBulk(data)
	table.Render()
	return nil
}

func exportTableData(records []slurm.JobRecord, fields []string) ([]string, [][]string) {
	names := slurm.FieldNames(fields)
	data := make([][]string, 0, len(records))
	for i := range records {
		data = append(data, slurm.RecordCells(&records[i], names))
	}
	return names, data
}

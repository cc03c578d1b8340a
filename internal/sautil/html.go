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
	"html/template"
	"io"
)

// The HTML report is pasted into status emails, so it carries inline
// styling only and no external assets.
var htmlReportTmpl = template.Must(template.New("report").Parse(`<table border="1" cellpadding="4" cellspacing="0">
  <tr>
    <th>Month</th><th>Allocated SU</th><th>Idle SU</th><th>Down SU</th>
    <th>Reported SU</th><th>Capacity SU</th><th>Utilization</th>
  </tr>
{{- range .}}
  <tr>
    <td>{{.Month}}</td><td align="right">{{printf "%.0f" .AllocSu}}</td>
    <td align="right">{{printf "%.0f" .IdleSu}}</td>
    <td align="right">{{printf "%.0f" .DownSu}}</td>
    <td align="right">{{printf "%.0f" .ReportedSu}}</td>
    <td align="right">{{printf "%.0f" .CapacitySu}}</td>
    <td align="right">{{printf "%.1f" .UtilPct}}%</td>
  </tr>
{{- end}}
</table>
`))

type htmlRow struct {
	Month      string
	AllocSu    float64
	IdleSu     float64
	DownSu     float64
	ReportedSu float64
	CapacitySu float64
	UtilPct    float64
}

func writeHtmlReport(w io.Writer, reports []*MonthReport) error {
	rows := make([]htmlRow, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, htmlRow{
			Month:      rep.Month.Format("2006-01"),
			AllocSu:    rep.Figures.AllocSu,
			IdleSu:     rep.Figures.IdleSu,
			DownSu:     rep.Figures.TotalDownSu(),
			ReportedSu: rep.Figures.TotalSu,
			CapacitySu: rep.CapacitySu,
			UtilPct:    rep.UtilizationPct(),
		})
	}
	return htmlReportTmpl.Execute(w, rows)
}

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

package slurm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerHour = 60.0

// UtilizationFigures are one `sreport cluster utilization -T billing`
// row converted from TRES-minutes to SUs (billing TRES hours).
type UtilizationFigures struct {
	AllocSu       float64
	DownSu        float64
	PlannedDownSu float64
	IdleSu        float64
	ReservedSu    float64
	TotalSu       float64
}

func (f *UtilizationFigures) TotalDownSu() float64 {
	return f.DownSu + f.PlannedDownSu
}

// ClusterUtilization queries sreport over [start, end).
func (c *Client) ClusterUtilization(ctx context.Context, start, end time.Time) (*UtilizationFigures, error) {
	out, err := c.runner.Run(ctx, "sreport",
		"-n", "-P", "cluster", "utilization", "-T", "billing",
		"start="+start.Format("2006-01-02"),
		"end="+end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return ParseClusterUtilization(out)
}

// ParseClusterUtilization reads the single data row:
//
//	Cluster|TRES Name|Allocated|Down|PLND Down|Idle|Reserved|Reported
//
// Figures arrive in minutes and come back as SUs.
func ParseClusterUtilization(out string) (*UtilizationFigures, error) {
	line := firstDataLine(out)
	if line == "" {
		return nil, fmt.Errorf("empty sreport output")
	}

	cells := strings.Split(line, "|")
	if len(cells) < 8 {
		return nil, fmt.Errorf("unexpected sreport row: %q", line)
	}

	values := make([]float64, 6)
	for i, cell := range cells[2:8] {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("bad sreport field %q: %w", cell, err)
		}
		values[i] = v / minutesPerHour
	}

	return &UtilizationFigures{
		AllocSu:       values[0],
		DownSu:        values[1],
		PlannedDownSu: values[2],
		IdleSu:        values[3],
		ReservedSu:    values[4],
		TotalSu:       values[5],
	}, nil
}

// AccountUsage is one AccountUtilizationByUser row. A row with an empty
// Login is the account's own rollup line.
type AccountUsage struct {
	Cluster    string
	Account    string
	Login      string
	ProperName string
	UsedSu     float64
}

// AccountUtilization queries per-account billing usage under the given
// root account, tree-ordered.
func (c *Client) AccountUtilization(ctx context.Context, account string, start, end time.Time) ([]AccountUsage, error) {
	out, err := c.runner.Run(ctx, "sreport",
		"-n", "-P", "cluster", "AccountUtilizationByUser",
		"Account="+account, "Tree", "-T", "billing",
		"Start="+start.Format("2006-01-02"),
		"End="+end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return ParseAccountUtilization(out)
}

// ParseAccountUtilization reads rows of
//
//	Cluster|Account|Login|Proper Name|TRES Name|Used
//
// with Used in minutes.
func ParseAccountUtilization(out string) ([]AccountUsage, error) {
	var usages []AccountUsage
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := strings.Split(line, "|")
		if len(cells) < 6 {
			return nil, fmt.Errorf("unexpected sreport row: %q", line)
		}
		used, err := strconv.ParseFloat(strings.TrimSpace(cells[5]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad usage field %q: %w", cells[5], err)
		}
		usages = append(usages, AccountUsage{
			Cluster:    cells[0],
			Account:    strings.TrimSpace(cells[1]),
			Login:      cells[2],
			ProperName: cells[3],
			UsedSu:     used / minutesPerHour,
		})
	}
	return usages, nil
}

func firstDataLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

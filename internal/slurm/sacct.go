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
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"SlurmAcctKit/internal/util"
)

const NoneAssigned = "None assigned"

// JobRecord is one row of sacct output. String fields keep sacct's
// spelling; parsed views are provided as methods.
type JobRecord struct {
	JobID     string
	JobName   string
	User      string
	Account   string
	Partition string
	NodeList  string
	Elapsed   string
	State     string
	ExitCode  string
	ReqMem    string
	MaxRSS    string
	MaxVMSize string
	ReqTRES   string
	AllocTRES string
}

var stepSuffixRe = regexp.MustCompile(`^\d+[._]`)

// IsStep reports whether the record is a job step (batch, extern or a
// numbered step) rather than the job's own accounting row.
func (r *JobRecord) IsStep() bool {
	if !strings.Contains(r.JobID, ".") {
		return false
	}
	return stepSuffixRe.MatchString(r.JobID)
}

func (r *JobRecord) ElapsedDuration() (time.Duration, error) {
	return util.ParseElapsed(r.Elapsed)
}

// AllocGpus reads the gres/gpu entry of AllocTRES. Zero with ok=false
// means the job never requested GPUs, which is different from a job
// that requested and was allocated zero.
func (r *JobRecord) AllocGpus() (int, bool) {
	return TresGpus(r.AllocTRES)
}

func (r *JobRecord) RequestedGpus() bool {
	_, ok := TresGpus(r.ReqTRES)
	return ok
}

// QueryJobs runs sacct over [start, end) for the given partitions and
// parses the pipe-delimited result. Fields use sacct's Field%width
// notation; the width suffix only affects sacct's fixed output mode and
// is harmless under -P.
func (c *Client) QueryJobs(ctx context.Context, partitions []string, start, end time.Time, fields []string) ([]JobRecord, error) {
	args := []string{
		"-P",
		"-r", strings.Join(partitions, ","),
		"-S", start.Format("2006-01-02"),
		"-E", end.Format("2006-01-02"),
		"-o", strings.Join(fields, ","),
	}
	out, err := c.runner.Run(ctx, "sacct", args...)
	if err != nil {
		return nil, err
	}
	return ParseSacctOutput(strings.NewReader(out))
}

// ParseSacctOutput reads headered pipe-delimited sacct output. Column
// order follows the header line, so the caller's field list and the
// parser never have to agree on ordering.
func ParseSacctOutput(r io.Reader) ([]JobRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	header := strings.Split(scanner.Text(), "|")
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	var records []JobRecord
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "|")
		if len(cells) != len(header) {
			return nil, fmt.Errorf("line %d: got %d fields, header has %d", lineNo, len(cells), len(header))
		}

		get := func(name string) string {
			if i, ok := colIdx[name]; ok {
				return cells[i]
			}
			return ""
		}

		records = append(records, JobRecord{
			JobID:     get("JobID"),
			JobName:   get("JobName"),
			User:      get("User"),
			Account:   get("Account"),
			Partition: get("Partition"),
			NodeList:  get("NodeList"),
			Elapsed:   get("Elapsed"),
			State:     get("State"),
			ExitCode:  get("ExitCode"),
			ReqMem:    get("ReqMem"),
			MaxRSS:    get("MaxRSS"),
			MaxVMSize: get("MaxVMSize"),
			ReqTRES:   get("ReqTRES"),
			AllocTRES: get("AllocTRES"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// FieldNames strips the %width suffixes from a configured field list.
func FieldNames(fields []string) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		if idx := strings.Index(f, "%"); idx != -1 {
			f = f[:idx]
		}
		names[i] = f
	}
	return names
}

// FieldWidths extracts the %width suffixes, -1 where none is given.
func FieldWidths(fields []string) []int {
	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = -1
		if idx := strings.Index(f, "%"); idx != -1 {
			if w, err := strconv.Atoi(f[idx+1:]); err == nil && w > 0 {
				widths[i] = w
			}
		}
	}
	return widths
}

// FormatSacctHeader renders the header line for an export file, pipe
// delimited like sacct's own.
func FormatSacctHeader(fields []string) string {
	return strings.Join(FieldNames(fields), "|")
}

// FormatSacctRow renders a record in the order of the given field names.
func FormatSacctRow(rec *JobRecord, fieldNames []string) string {
	return strings.Join(RecordCells(rec, fieldNames), "|")
}

// RecordCells returns the record's values in the order of the given
// field names, one cell per field.
func RecordCells(rec *JobRecord, fieldNames []string) []string {
	cells := make([]string, len(fieldNames))
	for i, name := range fieldNames {
		switch name {
		case "JobID":
			cells[i] = rec.JobID
		case "JobName":
			cells[i] = rec.JobName
		case "User":
			cells[i] = rec.User
		case "Account":
			cells[i] = rec.Account
		case "Partition":
			cells[i] = rec.Partition
		case "NodeList":
			cells[i] = rec.NodeList
		case "Elapsed":
			cells[i] = rec.Elapsed
		case "State":
			cells[i] = rec.State
		case "ExitCode":
			cells[i] = rec.ExitCode
		case "ReqMem":
			cells[i] = rec.ReqMem
		case "MaxRSS":
			cells[i] = rec.MaxRSS
		case "MaxVMSize":
			cells[i] = rec.MaxVMSize
		case "ReqTRES":
			cells[i] = rec.ReqTRES
		case "AllocTRES":
			cells[i] = rec.AllocTRES
		}
	}
	return cells
}

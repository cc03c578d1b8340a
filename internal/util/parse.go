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

package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseElapsed parses Slurm's elapsed notation, [DD-]HH:MM:SS with an
// optional fractional second part on batch steps.
func ParseElapsed(elapsed string) (time.Duration, error) {
	re := regexp.MustCompile(`^(?:(\d+)-)?(\d+):(\d{2}):(\d{2})(?:\.\d+)?$`)
	result := re.FindStringSubmatch(strings.TrimSpace(elapsed))
	if result == nil {
		return 0, fmt.Errorf("invalid elapsed format: %q", elapsed)
	}

	var dd uint64
	if result[1] != "" {
		day, err := strconv.ParseUint(result[1], 10, 32)
		if err != nil {
			return 0, err
		}
		dd = day
	}
	hh, err := strconv.ParseUint(result[2], 10, 32)
	if err != nil {
		return 0, err
	}
	mm, err := strconv.ParseUint(result[3], 10, 32)
	if err != nil {
		return 0, err
	}
	ss, err := strconv.ParseUint(result[4], 10, 32)
	if err != nil {
		return 0, err
	}

	seconds := 24*60*60*dd + 60*60*hh + 60*mm + ss
	return time.Duration(seconds) * time.Second, nil
}

func SecondTimeFormat(second int64) string {
	timeFormat := ""
	dd := second / 24 / 3600
	second %= 24 * 3600
	hh := second / 3600
	second %= 3600
	mm := second / 60
	ss := second % 60
	if dd > 0 {
		timeFormat = fmt.Sprintf("%d-%02d:%02d:%02d", dd, hh, mm, ss)
	} else {
		timeFormat = fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
	}
	return timeFormat
}

// ParseMemStringAsByte handles Slurm memory notation. A trailing "n" or
// "c" (per-node / per-cpu requests in ReqMem) is ignored for sizing.
func ParseMemStringAsByte(mem string) (uint64, error) {
	mem = strings.TrimSpace(mem)
	mem = strings.TrimRight(mem, "nc")
	re := regexp.MustCompile(`^([0-9]+(\.?[0-9]*))([KkMmGgTt]?)$`)
	result := re.FindStringSubmatch(mem)
	if result == nil {
		return 0, fmt.Errorf("invalid memory format: %q", mem)
	}
	sz, err := strconv.ParseFloat(result[1], 64)
	if err != nil {
		return 0, err
	}
	switch result[3] {
	case "K", "k":
		return uint64(1024 * sz), nil
	case "M", "m":
		return uint64(1024 * 1024 * sz), nil
	case "G", "g":
		return uint64(1024 * 1024 * 1024 * sz), nil
	case "T", "t":
		return uint64(1024 * 1024 * 1024 * 1024 * sz), nil
	}
	// sacct reports plain numbers in MB
	return uint64(1024 * 1024 * sz), nil
}

// ParseYearMonth parses "YYYY-MM" into the first instant of that month.
func ParseYearMonth(ym string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01", ym, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month format %q, want YYYY-MM", ym)
	}
	return parsed, nil
}

// MonthsBetween lists the first day of every month from start to end,
// both inclusive. Inputs are truncated to their month.
func MonthsBetween(start, end time.Time) []time.Time {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())

	var months []time.Time
	for !cur.After(last) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// PreviousMonth returns the first day of the month before now.
func PreviousMonth(now time.Time) time.Time {
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfThis.AddDate(0, -1, 0)
}

func ParseStringParamList(parameters string, splitStr string) ([]string, error) {
	var parameterList []string
	for _, p := range strings.Split(parameters, splitStr) {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("empty value in parameter list %q", parameters)
		}
		parameterList = append(parameterList, p)
	}
	return parameterList, nil
}

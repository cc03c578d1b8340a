package slurm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"SlurmAcctKit/internal/util"
)

// QueryJobsJSON is the robust twin of QueryJobs: sacct's JSON output
// cannot be broken by pipes or commas inside job names.
func (c *Client) QueryJobsJSON(ctx context.Context, partitions []string, start, end time.Time) ([]JobRecord, error) {
	args := []string{
		"--json",
		"-r", strings.Join(partitions, ","),
		"-S", start.Format("2006-01-02"),
		"-E", end.Format("2006-01-02"),
	}
	out, err := c.runner.Run(ctx, "sacct", args...)
	if err != nil {
		return nil, err
	}
	return ParseSacctJSON(out)
}

// ParseSacctJSON converts sacct --json output into the same JobRecord
// rows the pipe parser produces, so everything downstream is agnostic
// to which source fed it.
func ParseSacctJSON(data string) ([]JobRecord, error) {
	jobs := gjson.Get(data, "jobs")
	if !jobs.Exists() {
		return nil, fmt.Errorf("no jobs array in sacct JSON output")
	}

	var records []JobRecord
	jobs.ForEach(func(_, job gjson.Result) bool {
		rec := JobRecord{
			JobID:     job.Get("job_id").String(),
			JobName:   job.Get("name").String(),
			User:      job.Get("user").String(),
			Account:   job.Get("account").String(),
			Partition: job.Get("partition").String(),
			NodeList:  job.Get("nodes").String(),
			State:     job.Get("state.current").String(),
			ExitCode: fmt.Sprintf("%d:%d",
				job.Get("exit_code.return_code").Int(),
				job.Get("exit_code.signal.signal_id").Int()),
			Elapsed:   util.SecondTimeFormat(job.Get("time.elapsed").Int()),
			ReqMem:    job.Get("required.memory").String(),
			ReqTRES:   tresListToString(job.Get("tres.requested")),
			AllocTRES: tresListToString(job.Get("tres.allocated")),
		}
		if rec.NodeList == "" {
			rec.NodeList = NoneAssigned
		}
		records = append(records, rec)
		return true
	})
	return records, nil
}

// tresListToString flattens sacct's JSON TRES array back into the
// classic "type=count" comma form the rest of the toolkit speaks.
func tresListToString(list gjson.Result) string {
	var entries []string
	list.ForEach(func(_, item gjson.Result) bool {
		typ := item.Get("type").String()
		if name := item.Get("name").String(); name != "" {
			typ = typ + "/" + name
		}
		entries = append(entries, fmt.Sprintf("%s=%d", typ, item.Get("count").Int()))
		return true
	})
	return strings.Join(entries, ",")
}

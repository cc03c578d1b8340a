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
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	log "github.com/sirupsen/logrus"

	"SlurmAcctKit/internal/util"
)

// publishReports pushes monthly utilization figures to InfluxDB so the
// ops dashboards can graph them. Each month lands as one point stamped
// at the first instant of the month.
func publishReports(reports []*MonthReport) error {
	dbConfig := config.InfluxDB
	measurement := dbConfig.Measurement
	if measurement == "" {
		measurement = "cluster_utilization"
	}

	client := influxdb2.NewClientWithOptions(dbConfig.Url, dbConfig.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second))
	defer client.Close()

	ctx := context.Background()
	if pong, err := client.Ping(ctx); err != nil {
		return util.NewSacctErr(util.ErrorExec,
			fmt.Sprintf("Failed to ping InfluxDB: %v.", err))
	} else if !pong {
		return util.NewSacctErr(util.ErrorExec, "Failed to ping InfluxDB: not pong.")
	}

	writer := client.WriteAPIBlocking(dbConfig.Org, dbConfig.Bucket)
	for _, rep := range reports {
		tags := map[string]string{
			"cluster": config.Cluster,
		}
		fields := map[string]any{
			"alloc_su":    rep.Figures.AllocSu,
			"idle_su":     rep.Figures.IdleSu,
			"down_su":     rep.Figures.TotalDownSu(),
			"reserved_su": rep.Figures.ReservedSu,
			"reported_su": rep.Figures.TotalSu,
			"capacity_su": rep.CapacitySu,
			"util_pct":    rep.UtilizationPct(),
		}
		point := influxdb2.NewPoint(measurement, tags, fields, rep.Month)

		if err := writer.WritePoint(ctx, point); err != nil {
			return util.NewSacctErr(util.ErrorExec,
				fmt.Sprintf("Failed to write point to InfluxDB: %v.", err))
		}
		log.Tracef("Published %s alloc_su=%.0f util=%.1f%%",
			rep.Month.Format("2006-01"), rep.Figures.AllocSu, rep.UtilizationPct())
	}
	log.Infof("Published %d months to InfluxDB bucket %s", len(reports), dbConfig.Bucket)
	return nil
}

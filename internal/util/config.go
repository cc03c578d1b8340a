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

	"github.com/spf13/viper"
)

var DefaultConfigPath = "/etc/slurmacct/config.yaml"

type Config struct {
	Cluster string `mapstructure:"cluster"`
	DataDir string `mapstructure:"data_dir"`

	// Accounts whose jobs are dropped from every report (test projects etc).
	SkipAccounts []string `mapstructure:"skip_accounts"`

	PartitionSets []PartitionSet `mapstructure:"partition_sets"`

	// sacct output columns, in sacct's "Field%width" notation.
	Fields []string `mapstructure:"fields"`

	Capacity []NodeClass `mapstructure:"capacity"`

	Billing BillingConfig `mapstructure:"billing"`

	// Month the fiscal year starts in, 1-12.
	FiscalYearStartMonth int `mapstructure:"fiscal_year_start_month"`

	InfluxDB *InfluxDBConfig `mapstructure:"influxdb"`

	Log LogConfig `mapstructure:"log"`
}

// PartitionSet groups partitions sharing a distinct set of hosts, so that
// one export file covers one hardware class.
type PartitionSet struct {
	Name       string   `mapstructure:"name"`
	Partitions []string `mapstructure:"partitions"`
}

// NodeClass describes one hardware class for capacity accounting. Exactly
// one of CoresPerNode, GpusPerNode or MemTiBPerNode should be set; it is
// the unit SuPerUnitHour is charged against.
type NodeClass struct {
	Name          string  `mapstructure:"name"`
	Nodes         int     `mapstructure:"nodes"`
	CoresPerNode  int     `mapstructure:"cores_per_node"`
	GpusPerNode   int     `mapstructure:"gpus_per_node"`
	MemTiBPerNode float64 `mapstructure:"mem_tib_per_node"`
	SuPerUnitHour float64 `mapstructure:"su_per_unit_hour"`
}

// UnitsPerNode returns the number of billable units one node carries.
func (c *NodeClass) UnitsPerNode() float64 {
	switch {
	case c.CoresPerNode > 0:
		return float64(c.CoresPerNode)
	case c.GpusPerNode > 0:
		return float64(c.GpusPerNode)
	default:
		return c.MemTiBPerNode
	}
}

// SuForHours returns the SUs the whole class can deliver over the period.
func (c *NodeClass) SuForHours(hours float64) float64 {
	return float64(c.Nodes) * c.UnitsPerNode() * hours * c.SuPerUnitHour
}

type BillingConfig struct {
	RatePerSu   float64 `mapstructure:"rate_per_su"`
	ActiveFloor float64 `mapstructure:"active_floor"`
}

type InfluxDBConfig struct {
	Url         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaultConfig(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("cluster", "picotte")
	v.SetDefault("data_dir", "/var/spool/slurmacct")

	v.SetDefault("fields", []string{
		"JobID%20", "JobName", "User", "Account%25", "Partition",
		"NodeList%20", "Elapsed", "State", "ExitCode", "ReqMem",
		"MaxRSS", "MaxVMSize", "ReqTRES%60", "AllocTRES%60",
	})

	v.SetDefault("billing.rate_per_su", 0.0123)
	v.SetDefault("billing.active_floor", 10.0)
	v.SetDefault("fiscal_year_start_month", 7)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
}

func ValidateConfig(cfg *Config) error {
	if cfg.Cluster == "" {
		return fmt.Errorf("cluster name must be specified")
	}

	if cfg.FiscalYearStartMonth < 1 || cfg.FiscalYearStartMonth > 12 {
		return fmt.Errorf("fiscal_year_start_month must be in 1..12, got %d",
			cfg.FiscalYearStartMonth)
	}

	seen := make(map[string]bool)
	for _, set := range cfg.PartitionSets {
		if set.Name == "" {
			return fmt.Errorf("partition set without a name")
		}
		if seen[set.Name] {
			return fmt.Errorf("duplicate partition set %s", set.Name)
		}
		seen[set.Name] = true
		if len(set.Partitions) == 0 {
			return fmt.Errorf("partition set %s lists no partitions", set.Name)
		}
	}

	for _, class := range cfg.Capacity {
		if class.Nodes <= 0 {
			return fmt.Errorf("node class %s: node count must be positive", class.Name)
		}
		if class.UnitsPerNode() <= 0 {
			return fmt.Errorf("node class %s: one of cores_per_node, gpus_per_node or mem_tib_per_node is required", class.Name)
		}
		if class.SuPerUnitHour <= 0 {
			return fmt.Errorf("node class %s: su_per_unit_hour must be positive", class.Name)
		}
	}

	if cfg.InfluxDB != nil {
		if cfg.InfluxDB.Url == "" || cfg.InfluxDB.Token == "" ||
			cfg.InfluxDB.Org == "" || cfg.InfluxDB.Bucket == "" {
			return fmt.Errorf("incomplete influxdb configuration")
		}
	}

	return nil
}

// PartitionSetByName returns nil when the set is not configured.
func (c *Config) PartitionSetByName(name string) *PartitionSet {
	for i := range c.PartitionSets {
		if c.PartitionSets[i].Name == name {
			return &c.PartitionSets[i]
		}
	}
	return nil
}

func (c *Config) NodeClassByName(name string) *NodeClass {
	for i := range c.Capacity {
		if c.Capacity[i].Name == name {
			return &c.Capacity[i]
		}
	}
	return nil
}

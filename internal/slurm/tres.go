package slurm

import (
	"strconv"
	"strings"
)

// ParseTres splits a TRES string like
// "billing=48,cpu=48,gres/gpu=2,mem=187000M,node=1" into a map. Malformed
// entries are skipped rather than failing the whole record; sacct emits
// the string and we have no say in it.
func ParseTres(tres string) map[string]string {
	result := make(map[string]string)
	if strings.TrimSpace(tres) == "" {
		return result
	}
	for _, entry := range strings.Split(tres, ",") {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return result
}

// TresGpus returns the gres/gpu count. ok is false when the TRES string
// has no gres/gpu entry at all.
func TresGpus(tres string) (int, bool) {
	entries := ParseTres(tres)
	val, ok := entries["gres/gpu"]
	if !ok {
		// typed GPU gres, e.g. gres/gpu:v100=2
		for key, v := range entries {
			if strings.HasPrefix(key, "gres/gpu:") {
				val, ok = v, true
				break
			}
		}
	}
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TresCpus returns the cpu count, zero when absent.
func TresCpus(tres string) int {
	val, ok := ParseTres(tres)["cpu"]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

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
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"SlurmAcctKit/internal/slurm"
)

// The --where expression selects records with sacctmgr-style conditions,
// e.g.  where account=physicsprj,mathprj state!=FAILED user=alice
// Conditions are ANDed; comma-separated values within one condition are
// alternatives, and "!=" requires the field to match none of them.

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Reserved", Pattern: `\b(where)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Operator", Pattern: `!?=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type FilterExpr struct {
	Conditions []*Condition `parser:"'where'? @@+"`
}

type Condition struct {
	Key      string  `parser:"@Ident"`
	Operator string  `parser:"@Operator"`
	Values   []Value `parser:"@@ (',' @@)*"`
}

type Value interface{ v() string }

type StringVal struct {
	Value string `parser:"@String"`
}

func (val StringVal) v() string { return val.Value }

type IdentVal struct {
	Value string `parser:"@Ident"`
}

func (val IdentVal) v() string { return val.Value }

func getFilterParser() *participle.Parser[FilterExpr] {
	return participle.MustBuild[FilterExpr](
		participle.Lexer(filterLexer),
		participle.Unquote("String"),
		participle.Union[Value](StringVal{}, IdentVal{}),
		participle.Elide("Whitespace"),
	)
}

func ParseFilter(s string) (*FilterExpr, error) {
	expr, err := getFilterParser().ParseString("", s)
	if err != nil {
		return nil, err
	}
	for _, cond := range expr.Conditions {
		if _, err := fieldValue(&slurm.JobRecord{}, cond.Key); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

// Matches evaluates the expression against one record. Comparisons are
// case-insensitive; sacct is not consistent about state casing.
func (e *FilterExpr) Matches(rec *slurm.JobRecord) bool {
	for _, cond := range e.Conditions {
		actual, _ := fieldValue(rec, cond.Key)
		anyEqual := false
		for _, val := range cond.Values {
			if strings.EqualFold(actual, val.v()) {
				anyEqual = true
				break
			}
		}
		if cond.Operator == "!=" {
			if anyEqual {
				return false
			}
		} else if !anyEqual {
			return false
		}
	}
	return true
}

func fieldValue(rec *slurm.JobRecord, key string) (string, error) {
	switch strings.ToLower(key) {
	case "jobid":
		return rec.JobID, nil
	case "jobname", "name":
		return rec.JobName, nil
	case "user":
		return rec.User, nil
	case "account":
		return rec.Account, nil
	case "partition":
		return rec.Partition, nil
	case "state":
		// sacct appends the signal to CANCELLED states, keep the prefix
		state, _, _ := strings.Cut(rec.State, " ")
		return state, nil
	case "nodelist":
		return rec.NodeList, nil
	}
	return "", fmt.Errorf("unknown filter key: %s", key)
}

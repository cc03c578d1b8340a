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
	"strings"
)

// Account is one account record from a sacctmgr cluster dump.
type Account struct {
	Name         string
	Description  string
	Organization string
	Parent       string
	FairShare    string
	Users        []string
}

// ClusterDump is the parsed form of `sacctmgr dump <cluster>`.
type ClusterDump struct {
	Cluster string
	// Accounts in dump order; the dump lists parents before children.
	Accounts []*Account
}

func (d *ClusterDump) AccountByName(name string) *Account {
	for _, acct := range d.Accounts {
		if acct.Name == name {
			return acct
		}
	}
	return nil
}

// AccountNames returns the project identifiers in dump order, the list
// the manual workflow used to extract with grep/cut.
func (d *ClusterDump) AccountNames() []string {
	names := make([]string, 0, len(d.Accounts))
	for _, acct := range d.Accounts {
		names = append(names, acct.Name)
	}
	return names
}

// DumpCluster runs sacctmgr dump for the cluster. The dump normally
// lands in a file, so it is pointed at stdout to stay pipeline-shaped.
// Needs a privileged caller to see every account.
func (c *Client) DumpCluster(ctx context.Context, cluster string) (*ClusterDump, error) {
	out, err := c.runner.Run(ctx, "sacctmgr", "-i", "dump", cluster, "file=/dev/stdout")
	if err != nil {
		return nil, err
	}
	return ParseSacctmgrDump(strings.NewReader(out))
}

// ParseSacctmgrDump reads sacctmgr's dump format:
//
//	Cluster - 'picotte':Fairshare=1:...
//	Parent - 'root'
//	Account - 'physicsprj':Description='Physics':Fairshare=100
//	Parent - 'physicsprj'
//	User - 'alice':DefaultAccount='physicsprj':Fairshare=parent
//
// Parent lines set the context for the Account and User lines below them.
func ParseSacctmgrDump(r io.Reader) (*ClusterDump, error) {
	dump := &ClusterDump{}
	currentParent := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kind, rest, found := strings.Cut(line, " - ")
		if !found {
			continue
		}

		name, attrs, err := splitDumpEntity(rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch kind {
		case "Cluster":
			dump.Cluster = name
			currentParent = ""
		case "Parent":
			currentParent = name
		case "Account":
			acct := &Account{
				Name:         name,
				Parent:       currentParent,
				Description:  attrs["Description"],
				Organization: attrs["Organization"],
				FairShare:    attrs["Fairshare"],
			}
			dump.Accounts = append(dump.Accounts, acct)
		case "User":
			if acct := dump.AccountByName(currentParent); acct != nil {
				acct.Users = append(acct.Users, name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if dump.Cluster == "" {
		return nil, fmt.Errorf("no Cluster line in dump")
	}
	return dump, nil
}

// splitDumpEntity parses "'name':Key=Value:Key='Value'" into its name
// and attribute map. Quoted values may contain colons.
func splitDumpEntity(s string) (string, map[string]string, error) {
	fields, err := splitColonsQuoted(s)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty entity")
	}

	name := unquote(fields[0])
	attrs := make(map[string]string)
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		attrs[key] = unquote(value)
	}
	return name, attrs, nil
}

func splitColonsQuoted(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, c := range s {
		switch {
		case c == '\'':
			inQuote = !inQuote
			cur.WriteRune(c)
		case c == ':' && !inQuote:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	fields = append(fields, cur.String())
	return fields, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

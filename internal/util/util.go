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
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RunEWrapperForLeafCommand silences cobra's own error printing on leaf
// commands so that exit handling stays in one place.
func RunEWrapperForLeafCommand(cmd *cobra.Command) {
	for _, subCmd := range cmd.Commands() {
		RunEWrapperForLeafCommand(subCmd)
	}
	if len(cmd.Commands()) == 0 {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
	}
}

func RunAndHandleExit(cmd *cobra.Command) {
	err := cmd.Execute()
	if err == nil {
		os.Exit(ErrorSuccess)
	}

	var sacctErr *SacctError
	if errors.As(err, &sacctErr) {
		if sacctErr.Message != "" {
			log.Error(sacctErr.Message)
		}
		os.Exit(sacctErr.Code)
	}

	log.Error(err)
	os.Exit(ErrorGeneric)
}

func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

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
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func CheckLogLevel(level string) error {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level: %s", level)
}

func InitLogger(level log.Level) {
	log.SetLevel(level)
	log.SetFormatter(&nested.Formatter{})
	if level == log.TraceLevel {
		log.SetReportCaller(true)
	}
}

func InitLoggerWithLevelName(levelName string) error {
	if err := CheckLogLevel(levelName); err != nil {
		return err
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return err
	}
	InitLogger(level)
	return nil
}

// AttachLogFile mirrors log output into a rotated file. Stderr keeps
// receiving everything so interactive runs stay visible.
func AttachLogFile(cfg *LogConfig) {
	if cfg.File == "" {
		return
	}
	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, writer))
}

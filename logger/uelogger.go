// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/cellsim/cellsim/types"
)

type logEntry struct {
	Level Level
	Msg   string
}

// UeLogger buffers log entries of a single UE until the simulation flushes them with the simulated time.
// Entries can additionally be written to a per-UE log file. Display follows the global log level.
type UeLogger struct {
	Id NodeId

	logFile       *os.File
	logFileName   string
	isFileEnabled bool
	entries       chan logEntry
	timestampUs   SimTime
}

// NewUeLogger creates the logger for UE ue. If fileEnabled, a log file is created in outputDir.
func NewUeLogger(outputDir string, simulationId int, ue NodeId, fileEnabled bool) *UeLogger {
	log := &UeLogger{
		Id:            ue,
		entries:       make(chan logEntry, 1000),
		logFileName:   getLogFileName(outputDir, simulationId, ue),
		isFileEnabled: fileEnabled,
	}
	if log.isFileEnabled {
		log.createLogFile()
	}
	return log
}

func getLogFileName(outputDir string, simId int, ue NodeId) string {
	return filepath.Join(outputDir, fmt.Sprintf("%d_ue%d.log", simId, ue))
}

func (ul *UeLogger) createLogFile() {
	var err error
	if err = os.RemoveAll(ul.logFileName); err != nil {
		Errorf("remove existing UE log file %s failed, file logging disabled (%+v)", ul.logFileName, err)
		ul.isFileEnabled = false
		return
	}

	ul.logFile, err = os.OpenFile(ul.logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		Errorf("opening UE log file %s failed: %+v", ul.logFileName, err)
		ul.isFileEnabled = false
		return
	}

	header := fmt.Sprintf("#\n# UE log for %sCreated %s\n", GetUeName(ul.Id), time.Now().Format(time.RFC3339)) +
		"# SimTimeUs  Message"
	_ = ul.writeToLogFile(header)
	Debugf("UE log file '%s' opened.", ul.logFileName)
}

// Logf queues a log entry. When the queue is full, pending entries are flushed first.
func (ul *UeLogger) Logf(level Level, format string, args ...interface{}) {
	if !IsLevelEnabled(level) && !ul.isFileEnabled {
		return
	}
	entry := logEntry{
		Level: level,
		Msg:   getMessage(format, args),
	}
	select {
	case ul.entries <- entry:
		break
	default:
		ul.DisplayPendingLogEntries(ul.timestampUs)
		ul.entries <- entry
	}
}

func (ul *UeLogger) Tracef(format string, args ...interface{}) {
	ul.Logf(TraceLevel, format, args...)
}

func (ul *UeLogger) Debugf(format string, args ...interface{}) {
	ul.Logf(DebugLevel, format, args...)
}

func (ul *UeLogger) Infof(format string, args ...interface{}) {
	ul.Logf(InfoLevel, format, args...)
}

func (ul *UeLogger) Warnf(format string, args ...interface{}) {
	ul.Logf(WarnLevel, format, args...)
}

func (ul *UeLogger) Errorf(format string, args ...interface{}) {
	ul.Logf(ErrorLevel, format, args...)
}

func (ul *UeLogger) writeToLogFile(line string) error {
	if !ul.isFileEnabled {
		return nil
	}
	_, err := ul.logFile.WriteString(line + "\n")
	if err != nil {
		_ = ul.logFile.Close()
		ul.logFile = nil
		ul.isFileEnabled = false
		Errorf("couldn't write to UE log file (%s), closing it", ul.logFileName)
	}
	return err
}

// DisplayPendingLogEntries writes all queued entries, stamped with simulated time ts.
func (ul *UeLogger) DisplayPendingLogEntries(ts SimTime) {
	ul.timestampUs = ts
	tsStr := fmt.Sprintf("%11d ", ts)
	ueStr := GetUeName(ul.Id)
	for {
		select {
		case ent := <-ul.entries:
			logStr := tsStr + ent.Msg
			isDisplayEntry := IsLevelEnabled(ent.Level)
			if ent.Level <= DebugLevel || isDisplayEntry {
				_ = ul.writeToLogFile(logStr)
			}
			if isDisplayEntry {
				logAlways(ent.Level, ueStr+logStr)
			}
		default:
			return
		}
	}
}

// Close flushes pending entries and closes the log file, if any.
func (ul *UeLogger) Close() {
	ul.DisplayPendingLogEntries(ul.timestampUs)
	if ul.logFile != nil {
		_ = ul.logFile.Close()
		ul.logFile = nil
		ul.isFileEnabled = false
	}
}

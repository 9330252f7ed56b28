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

	"github.com/simonlingoogle/go-simplelogger"
)

// Level is a log level; a higher value is more verbose.
type Level int

const (
	OffLevel Level = iota
	PanicLevel
	ErrorLevel
	WarnLevel
	NoteLevel
	InfoLevel
	DebugLevel
	TraceLevel

	DefaultLevel = InfoLevel
)

var currentLevel = DefaultLevel

func init() {
	// filtering is done here; simplelogger only formats and writes.
	simplelogger.SetLevel(simplelogger.DebugLevel)
}

// SetLevel sets the global log level.
func SetLevel(level Level) {
	currentLevel = level
}

// GetLevel gets the global log level.
func GetLevel() Level {
	return currentLevel
}

// IsLevelEnabled checks whether messages at level are currently displayed.
func IsLevelEnabled(level Level) bool {
	return level <= currentLevel
}

func getMessage(format string, args []interface{}) string {
	if format == "" {
		return fmt.Sprint(args...)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// logAlways writes msg at the given level regardless of the global level.
func logAlways(level Level, msg string) {
	switch level {
	case PanicLevel:
		simplelogger.Panicf("%s", msg)
	case ErrorLevel:
		simplelogger.Errorf("%s", msg)
	case WarnLevel:
		simplelogger.Warnf("%s", msg)
	case NoteLevel, InfoLevel:
		simplelogger.Infof("%s", msg)
	default:
		simplelogger.Debugf("%s", msg)
	}
}

func logf(level Level, format string, args []interface{}) {
	if !IsLevelEnabled(level) {
		return
	}
	logAlways(level, getMessage(format, args))
}

func Tracef(format string, args ...interface{}) {
	logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	logf(InfoLevel, format, args)
}

func Notef(format string, args ...interface{}) {
	logf(NoteLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	logf(ErrorLevel, format, args)
}

func Panicf(format string, args ...interface{}) {
	simplelogger.Panicf(format, args...)
}

func AssertTrue(cond bool) {
	simplelogger.AssertTrue(cond)
}

func AssertFalse(cond bool) {
	simplelogger.AssertFalse(cond)
}

func AssertNil(v interface{}) {
	simplelogger.AssertNil(v)
}

func AssertNotNil(v interface{}) {
	simplelogger.AssertNotNil(v)
}

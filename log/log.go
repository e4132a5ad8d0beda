// Package log provides the allocator's logging seam. Applications may
// supply their own Logger, matching the host-storage-engine convention
// from which this module was carved: allocator internals only ever log
// through this interface, never directly to stdout.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger is implemented by anything that wants to receive allocator log
// output; applications embedding tcalloc into a larger logging setup
// supply their own via SetLogger.
type Logger interface {
	SetLogLevel(string)
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

type level int

const (
	levelIgnore level = iota + 1
	levelError
	levelWarn
	levelInfo
	levelVerbose
	levelDebug
)

var log Logger = &defaultLogger{level: levelInfo, output: os.Stdout}

// SetLogger installs logger as the destination for all allocator log
// output, or resets to the default stdout logger when logger is nil.
func SetLogger(logger Logger) Logger {
	if logger != nil {
		log = logger
		return log
	}
	log = &defaultLogger{level: levelInfo, output: os.Stdout}
	return log
}

// SetLevel passes lvl to the installed Logger's SetLogLevel; for the
// default logger this adjusts its verbosity.
func SetLevel(lvl string) {
	log.SetLogLevel(lvl)
}

func Errorf(format string, v ...interface{})   { log.Errorf(format, v...) }
func Warnf(format string, v ...interface{})    { log.Warnf(format, v...) }
func Infof(format string, v ...interface{})    { log.Infof(format, v...) }
func Verbosef(format string, v ...interface{}) { log.Verbosef(format, v...) }
func Debugf(format string, v ...interface{})   { log.Debugf(format, v...) }

type defaultLogger struct {
	level  level
	output io.Writer
}

func (l *defaultLogger) SetLogLevel(lvl string) { l.level = string2level(lvl) }

func (l *defaultLogger) Errorf(format string, v ...interface{})   { l.printf(levelError, format, v...) }
func (l *defaultLogger) Warnf(format string, v ...interface{})    { l.printf(levelWarn, format, v...) }
func (l *defaultLogger) Infof(format string, v ...interface{})    { l.printf(levelInfo, format, v...) }
func (l *defaultLogger) Verbosef(format string, v ...interface{}) { l.printf(levelVerbose, format, v...) }
func (l *defaultLogger) Debugf(format string, v ...interface{})   { l.printf(levelDebug, format, v...) }

func (l *defaultLogger) printf(lvl level, format string, v ...interface{}) {
	if lvl > l.level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
	fmt.Fprintf(l.output, ts+" ["+lvl.String()+"] "+format+"\n", v...)
}

func (l level) String() string {
	switch l {
	case levelIgnore:
		return "Ignor"
	case levelError:
		return "Error"
	case levelWarn:
		return "Warng"
	case levelInfo:
		return "Infom"
	case levelVerbose:
		return "Verbs"
	case levelDebug:
		return "Debug"
	}
	return "Unkwn"
}

func string2level(s string) level {
	switch strings.ToLower(s) {
	case "ignore":
		return levelIgnore
	case "error":
		return levelError
	case "warn":
		return levelWarn
	case "info":
		return levelInfo
	case "verbose":
		return levelVerbose
	case "debug":
		return levelDebug
	}
	return levelInfo
}

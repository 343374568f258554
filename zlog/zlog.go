// Package zlog is a minimal leveled logger read from the ZINCC_LOG
// environment variable. No pack example carries a structured/leveled
// logging library (the closest, akashmaji946-go-mix, just uses fatih/color
// directly on stderr), so this one concern stays a small hand-rolled shim;
// see DESIGN.md for the justification. Severities and call sites mirror
// zinc-compiler's log::trace!/log::debug! use in Bytecode::entry_to_bytes.
package zlog

import (
	"fmt"
	"os"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var names = map[string]Level{
	"error": LevelError, "warn": LevelWarn, "info": LevelInfo,
	"debug": LevelDebug, "trace": LevelTrace,
}

var current = LevelInfo

func init() {
	if v, ok := names[os.Getenv("ZINCC_LOG")]; ok {
		current = v
	}
}

// SetLevel overrides the configured level, used by main's --verbose flag.
func SetLevel(l Level) { current = l }

func log(l Level, tag, format string, args ...interface{}) {
	if l > current {
		return
	}
	fmt.Fprintf(os.Stderr, "["+tag+"] "+format+"\n", args...)
}

func Trace(format string, args ...interface{}) { log(LevelTrace, "trace", format, args...) }
func Debug(format string, args ...interface{}) { log(LevelDebug, "debug", format, args...) }
func Info(format string, args ...interface{})  { log(LevelInfo, "info", format, args...) }
func Warn(format string, args ...interface{})  { log(LevelWarn, "warn", format, args...) }
func Error(format string, args ...interface{}) { log(LevelError, "error", format, args...) }

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	return [...]string{"DEBUG", "INFO", "WARN", "ERROR"}[l]
}

var (
	mu     sync.Mutex
	level  = LevelInfo
	output io.Writer = os.Stderr

	tags = map[Level]*color.Color{
		LevelDebug: color.New(color.FgHiBlack),
		LevelInfo:  color.New(color.FgCyan),
		LevelWarn:  color.New(color.FgYellow, color.Bold),
		LevelError: color.New(color.FgRed, color.Bold),
	}
)

// * SetLevel drops every message below l
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// * SetOutput redirects log lines, mainly for tests and the CLI (which keeps stdout for JSON)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func Debug(format string, args ...any) { write(LevelDebug, format, args...) }
func Info(format string, args ...any)  { write(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { write(LevelWarn, format, args...) }
func Error(format string, args ...any) { write(LevelError, format, args...) }

func write(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "%s %s %s\n", time.Now().Format(time.RFC3339), tags[l].Sprintf("%-5s", l), msg)
}

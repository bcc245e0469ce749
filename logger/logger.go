package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// ANSI color codes for console level prefixes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "[DEBUG] ",
	INFO:  "[INFO]  ",
	WARN:  "[WARN]  ",
	ERROR: "[ERROR] ",
}

var levelColors = map[LogLevel]string{
	DEBUG: colorGray,
	INFO:  colorReset,
	WARN:  colorYellow,
	ERROR: colorRed,
}

type sink struct {
	loggers map[LogLevel]*log.Logger
}

func newSink(out *os.File, colored bool) *sink {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	s := &sink{loggers: make(map[LogLevel]*log.Logger)}
	for lvl, name := range levelNames {
		prefix := name
		if colored {
			prefix = levelColors[lvl] + name + colorReset
		}
		s.loggers[lvl] = log.New(out, prefix, flags)
	}
	return s
}

var (
	mu       sync.Mutex
	console  = newSink(os.Stdout, true)
	file     *sink
	logFile  *os.File
	minLevel = DEBUG
)

// Init adds a log file next to the console output. Console logging stays on
// regardless; pass an empty filename to log to console only.
func Init(filename string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		file = nil
	}
	if filename == "" {
		return nil
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	file = newSink(f, false)
	return nil
}

// SetLevel sets the minimum level; messages below it are dropped.
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// Close closes the log file if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		file = nil
	}
}

func output(level LogLevel, msg string) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	console.loggers[level].Output(3, msg)
	if file != nil {
		file.loggers[level].Output(3, msg)
	}
}

func Debug(v ...interface{}) { output(DEBUG, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{}) { output(DEBUG, fmt.Sprintf(format, v...)) }

func Info(v ...interface{}) { output(INFO, fmt.Sprint(v...)) }

func Infof(format string, v ...interface{}) { output(INFO, fmt.Sprintf(format, v...)) }

func Warn(v ...interface{}) { output(WARN, fmt.Sprint(v...)) }

func Warnf(format string, v ...interface{}) { output(WARN, fmt.Sprintf(format, v...)) }

func Error(v ...interface{}) { output(ERROR, fmt.Sprint(v...)) }

func Errorf(format string, v ...interface{}) { output(ERROR, fmt.Sprintf(format, v...)) }

// Fatal logs an error message and exits the program.
func Fatal(v ...interface{}) {
	output(ERROR, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits the program.
func Fatalf(format string, v ...interface{}) {
	output(ERROR, fmt.Sprintf(format, v...))
	os.Exit(1)
}

package logzer

import (
	"container/ring"
	"io"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	logFile io.WriteCloser

	// SecretsRe masks credentials in JSON-like records.
	// Covers API session tokens sent as "auth" and login results.
	SecretsRe = map[*regexp.Regexp][]byte{
		regexp.MustCompile(`((?i:password|token|auth)"[^:]*:[^"]*)"(?:[^\\"]*(?:\\")*[\\]*)*"`): []byte(`${1}"***"`),
	}
)

type options struct {
	colors     bool
	condense   time.Duration
	level      zerolog.Level
	logFile    io.WriteCloser
	out        io.Writer
	timeFormat string
}

// Option defines logger option type
type Option func(*options)

// WithColors sets formatter option
func WithColors(b bool) Option {
	return func(o *options) { o.colors = b }
}

// WithCondense enables condensing similar records
func WithCondense(d time.Duration) Option {
	return func(o *options) { o.condense = d }
}

// WithLevel sets level option
func WithLevel(lvl zerolog.Level) Option {
	return func(o *options) { o.level = lvl }
}

// WithLogFile sets filelog option
func WithLogFile(w io.WriteCloser) Option {
	return func(o *options) { o.logFile = w }
}

// WithOutput sets console output, os.Stderr by default
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithTimeFormat sets formatter option
func WithTimeFormat(s string) Option {
	return func(o *options) { o.timeFormat = s }
}

// NewLoggerWriter returns writer for zerolog.Logger with options applied.
// Records are condensed, sanitized and written to console and log file.
// Stdout stays reserved for command results.
func NewLoggerWriter(opts ...Option) zerolog.LevelWriter {
	o := &options{
		level:      zerolog.InfoLevel,
		out:        os.Stderr,
		timeFormat: time.RFC3339,
	}
	for _, opt := range opts {
		opt(o)
	}

	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(o.level)
	if logFile != nil && logFile != o.logFile {
		_ = logFile.Close()
	}
	logFile = o.logFile

	var out io.Writer = o.out
	if logFile != nil {
		out = zerolog.MultiLevelWriter(o.out, logFile)
	}
	formatter := &zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !o.colors,
		TimeFormat: o.timeFormat,
	}
	filter := &FilterWriter{
		LevelWriter: zerolog.MultiLevelWriter(formatter),
		Re:          SecretsRe,
	}
	return &CondenseWriter{
		Condense:    o.condense,
		LevelWriter: filter,
	}
}

// WriteLogBuffer writes buffered records passing global level to w
func WriteLogBuffer(lb *LogBuffer, w zerolog.LevelWriter) {
	lvl := zerolog.GlobalLevel()
	for _, p := range lb.Records() {
		if p.lvl >= lvl {
			_, _ = w.WriteLevel(p.lvl, p.buf)
		}
	}
}

// CondenseWriter handles similar writes by caller field
type CondenseWriter struct {
	zerolog.LevelWriter
	mu       sync.Mutex
	once     sync.Once
	cache    *cache.Cache
	callerRe *regexp.Regexp
	Condense time.Duration
}

// Write implements io.Writer interface
func (w *CondenseWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter interface
func (w *CondenseWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	w.once.Do(func() {
		defaultExpiration, cleanupInterval := time.Minute*10, time.Second*10
		if w.Condense > 0 {
			defaultExpiration = w.Condense * 2
			cleanupInterval = w.Condense / 4
		}
		w.cache = cache.New(defaultExpiration, cleanupInterval)
		w.cache.OnEvicted(w.onEvicted())
		w.callerRe = regexp.MustCompile(`"` + zerolog.CallerFieldName + `":"[^"]*"`)
	})
	if w.Condense <= 0 {
		return w.LevelWriter.WriteLevel(lvl, p)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ck := string(append([]byte{byte(lvl), ':'}, w.callerRe.Find(p)...))
	/* workaround on https://github.com/patrickmn/go-cache/issues/48 */
	w.cache.DeleteExpired()
	if _, ok := w.cache.Get(ck); ok {
		_ = w.cache.Increment(ck, 1)
		return len(p), nil
	}
	_ = w.cache.Add(ck, uint16(0), w.Condense)
	return w.LevelWriter.WriteLevel(lvl, p)
}

func (w *CondenseWriter) onEvicted() func(string, any) {
	return func(ck string, i any) {
		v := i.(uint16)
		if v == 0 {
			return
		}
		lvl, caller := zerolog.Level(ck[0]), ck[2:]
		buf := append(make([]byte, 0, 200), '{')
		buf = append(buf, '"')
		buf = append(buf, zerolog.LevelFieldName...)
		buf = append(buf, `":"`...)
		buf = append(buf, lvl.String()...)
		buf = append(buf, `",`...)
		buf = appendTimestamp(buf, time.Now())
		if caller != "" {
			buf = append(buf, ',')
			buf = append(buf, caller...)
		}
		buf = append(buf, `,"`...)
		buf = append(buf, zerolog.MessageFieldName...)
		buf = append(buf, `":"[condensed `...)
		buf = strconv.AppendInt(buf, int64(v), 10)
		buf = append(buf, ` more entries last `...)
		buf = strconv.AppendInt(buf, int64(w.Condense.Seconds()), 10)
		buf = append(buf, " seconds]\"}\n"...)
		_, _ = w.LevelWriter.WriteLevel(lvl, buf)
	}
}

func appendTimestamp(dst []byte, ts time.Time) []byte {
	dst = append(dst, '"')
	dst = append(dst, zerolog.TimestampFieldName...)
	dst = append(dst, `":`...)
	switch zerolog.TimeFieldFormat {
	case zerolog.TimeFormatUnix:
		return strconv.AppendInt(dst, ts.Unix(), 10)
	case zerolog.TimeFormatUnixMs:
		return strconv.AppendInt(dst, ts.UnixMilli(), 10)
	case zerolog.TimeFormatUnixMicro:
		return strconv.AppendInt(dst, ts.UnixMicro(), 10)
	}
	dst = append(dst, '"')
	dst = ts.AppendFormat(dst, zerolog.TimeFieldFormat)
	return append(dst, '"')
}

// FilterWriter implements sanitizing writes by Regexp map
type FilterWriter struct {
	zerolog.LevelWriter
	mu sync.Mutex
	Re map[*regexp.Regexp][]byte
}

// Write implements io.Writer interface
func (w *FilterWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter interface
func (w *FilterWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(p)
	for reg, repl := range w.Re {
		p = reg.ReplaceAll(p, repl)
	}
	if _, err := w.LevelWriter.WriteLevel(lvl, p); err != nil {
		return 0, err
	}
	return n, nil
}

// LogBuffer collects writes if level passed
type LogBuffer struct {
	mu    sync.Mutex
	once  sync.Once
	ring  *ring.Ring
	Level zerolog.Level
	Size  int
}

func (lb *LogBuffer) init() {
	lb.once.Do(func() {
		lb.ring = ring.New(max(lb.Size, 1))
	})
}

// Records returns collected writes
func (lb *LogBuffer) Records() []LogRecord {
	lb.init()
	lb.mu.Lock()
	defer lb.mu.Unlock()
	rec := []LogRecord{}
	lb.ring.Do(func(p any) {
		if p != nil {
			rec = append(rec, p.(LogRecord))
		}
	})
	return rec
}

// Write implements io.Writer interface
func (lb *LogBuffer) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel implements zerolog.LevelWriter interface
func (lb *LogBuffer) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	lb.init()
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lvl >= lb.Level {
		/* store the copy as source could be updated */
		cp := make([]byte, len(p))
		copy(cp, p)
		lb.ring.Value = LogRecord{cp, lvl}
		lb.ring = lb.ring.Next()
	}
	return len(p), nil
}

// LogRecord wraps JSON-like data from logger
type LogRecord struct {
	buf []byte
	lvl zerolog.Level
}

package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"antfarm.ai/internal/sim/world"
)

const (
	hourLayout = "2006-01-02-15"
	segmentExt = ".jsonl.zst"
)

// segment is one open hour file: file <- zstd <- buffer <- json.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Appending after a restart adds a new zstd frame; readers decode frames back to back.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 64*1024)
	return &segment{hour: hour, f: f, zw: zw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (s *segment) close() error {
	flushErr := s.buf.Flush()
	zErr := s.zw.Close()
	fErr := s.f.Close()
	return errors.Join(flushErr, zErr, fErr)
}

// HourlyWriter appends JSON values as lines to zstd files cut by UTC hour,
// named <prefix>-<hour>.jsonl.zst. Every Write is flushed through to the file.
type HourlyWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewHourlyWriter(dir, prefix string) *HourlyWriter {
	return &HourlyWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *HourlyWriter) path(hour string) string {
	return filepath.Join(w.dir, w.prefix+"-"+hour+segmentExt)
}

func (w *HourlyWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format(hourLayout)
	if w.cur == nil || w.cur.hour != hour {
		if err := w.closeSegment(); err != nil {
			return fmt.Errorf("close segment: %w", err)
		}
		seg, err := openSegment(w.path(hour), hour)
		if err != nil {
			return fmt.Errorf("open segment %s: %w", hour, err)
		}
		w.cur = seg
	}
	if err := w.cur.enc.Encode(v); err != nil {
		return err
	}
	if err := w.cur.buf.Flush(); err != nil {
		return err
	}
	return w.cur.zw.Flush()
}

func (w *HourlyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeSegment()
}

func (w *HourlyWriter) closeSegment() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur = nil
	return err
}

// TickLogger writes one JSONL entry per eventful tick (compressed). Ticks with
// no spawns, deaths, edits, faults or stats are skipped.
type TickLogger struct{ w *HourlyWriter }

func NewTickLogger(dataDir string) *TickLogger {
	return &TickLogger{w: NewHourlyWriter(filepath.Join(dataDir, "events"), "events")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	if len(e.Spawns) == 0 && len(e.Deaths) == 0 && len(e.Edits) == 0 && len(e.Faults) == 0 && len(e.Stats) == 0 {
		return nil
	}
	return l.w.Write(e)
}

func (l *TickLogger) Close() error { return l.w.Close() }

// Files lists the log files under dir with the given prefix, oldest first.
func Files(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, segmentExt) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// The hour layout sorts lexically.
	sort.Strings(out)
	return out, nil
}

// ReadLines decompresses one log file and calls fn for every line.
func ReadLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Package report writes completed reps as a CSV training log.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Header is the column set of the training log.
var Header = []string{"exercise", "reps", "state", "angle", "rpm", "feedback"}

// Row is one completed repetition.
type Row struct {
	Exercise string
	Reps     int
	State    string
	Angle    float64
	RPM      float64
	Feedback string
}

func (r Row) record() []string {
	return []string{
		r.Exercise,
		strconv.Itoa(r.Reps),
		r.State,
		oneDecimal(r.Angle),
		oneDecimal(r.RPM),
		r.Feedback,
	}
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

// Write writes the header followed by rows to w.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Log appends rows to a CSV file, flushing after each one so the file is
// usable while a session is still running.
type Log struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// OpenLog opens or creates the log at path. The header is written only when
// the file is new or empty.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv log: %w", err)
	}

	l := &Log{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.write(Header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// Append writes one row.
func (l *Log) Append(r Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(r.record())
}

func (l *Log) write(record []string) error {
	if err := l.w.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	return l.file.Close()
}

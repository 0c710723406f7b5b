package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNoHistory is returned by Tail when the journal file does not exist yet.
var ErrNoHistory = errors.New("no history recorded")

// Entry is one line of the history journal.
type Entry struct {
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	ID      int       `json:"id,omitempty"`
	Task    string    `json:"task,omitempty"`
	Status  string    `json:"status,omitempty"`
}

// Journal appends JSONL entries for mutating commands.
type Journal struct {
	Path string
}

// NewJournal returns a journal writing to path.
func NewJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("history file path is empty")
	}
	return &Journal{Path: path}, nil
}

// Append writes one entry, creating the file and its directory as needed.
// A zero Time is set to now.
func (j *Journal) Append(e Entry) error {
	if j == nil {
		return nil
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(j.Path), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(j.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write history file: %w", err)
	}
	return f.Close()
}

// ReadEntries parses every entry in the journal at path.
// Lines that do not parse are skipped.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoHistory
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	err = eachLine(f, func(line []byte) {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return
		}
		entries = append(entries, e)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Tail writes the last n lines of the journal at path to w (all lines if n <= 0).
func Tail(w io.Writer, path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoHistory
		}
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var lines [][]byte
	err = eachLine(f, func(line []byte) {
		lines = append(lines, line)
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	})
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// eachLine calls fn with every non-empty line of r, without the trailing
// newline. Lines of any length are accepted; task descriptions are unbounded.
func eachLine(r io.Reader, fn func(line []byte)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimRight(line, "\r\n"); len(trimmed) > 0 {
			fn(trimmed)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read history file: %w", err)
		}
	}
}

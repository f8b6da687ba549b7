package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes CSV records to a temporary file next to the target and
// only moves it into place on Commit, so a failed run never leaves a
// truncated report at the output path.
type FileSink struct {
	path string
	tmp  *os.File
	csv  *csv.Writer
	done bool
}

func CreateFileSink(path string) (*FileSink, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.partial")
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	w := csv.NewWriter(tmp)
	w.UseCRLF = true
	return &FileSink{
		path: path,
		tmp:  tmp,
		csv:  w,
	}, nil
}

func (s *FileSink) Write(record []string) error {
	return s.csv.Write(record)
}

// Commit flushes the records and renames the file to its final path.
func (s *FileSink) Commit() error {
	if s.done {
		return fmt.Errorf("report sink for %s already closed", s.path)
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("flush report: %w", err)
	}
	if err := s.tmp.Chmod(0o644); err != nil {
		_ = s.Abort()
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := s.tmp.Close(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(s.tmp.Name(), s.path); err != nil {
		_ = os.Remove(s.tmp.Name())
		s.done = true
		return fmt.Errorf("move report into place: %w", err)
	}
	s.done = true
	return nil
}

// Abort discards everything written so far. It is a no-op after Commit.
func (s *FileSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

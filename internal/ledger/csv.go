// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVStore keeps the ledger in a CSV file with a header row.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads every entry. A missing file is an empty ledger.
func (s *CSVStore) Load(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV decodes a ledger. An empty input is an empty ledger; otherwise the
// first row must be the Columns header.
func ReadCSV(ctx context.Context, r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)

	header, err := reader.Read()
	if err == io.EOF {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, col := range Columns {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("%w: header column %d is %q, want %q", ErrInvalidEntry, i+1, header[i], col)
		}
	}

	entries := []Entry{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRecord(rec []string) (Entry, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: id %q: %w", ErrInvalidEntry, rec[0], err)
	}
	ts, err := time.Parse(time.RFC3339, rec[1])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: date %q: %w", ErrInvalidEntry, rec[1], err)
	}
	count, err := strconv.Atoi(rec[3])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: requirement count %q: %w", ErrInvalidEntry, rec[3], err)
	}
	elapsed, err := time.ParseDuration(rec[5])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: execution time %q: %w", ErrInvalidEntry, rec[5], err)
	}
	return Entry{
		ID:               id,
		Timestamp:        ts,
		DocumentName:     rec[2],
		RequirementCount: count,
		Status:           rec[4],
		ExecutionTime:    elapsed,
		DeliveryPath:     rec[6],
	}, nil
}

func formatRecord(e Entry) []string {
	return []string{
		strconv.Itoa(e.ID),
		e.Timestamp.Format(time.RFC3339),
		e.DocumentName,
		strconv.Itoa(e.RequirementCount),
		e.Status,
		e.ExecutionTime.String(),
		e.DeliveryPath,
	}
}

// Append writes one row, writing the header first when the file is new or
// empty. A file whose last row lacks its line terminator is terminated first.
func (s *CSVStore) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger for append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return fmt.Errorf("failed to read ledger tail: %w", err)
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				return fmt.Errorf("failed to terminate last ledger row: %w", err)
			}
		}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	if err := w.Write(formatRecord(e)); err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return f.Sync()
}

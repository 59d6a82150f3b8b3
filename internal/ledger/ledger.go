// SPDX-License-Identifier: Apache-2.0

// Package ledger is the append-only registry of completed analyses. Each
// document name may be registered once.
//
// Registration reads every entry, checks for a duplicate name and appends with
// id = count+1. Nothing serializes those steps, so a ledger must have a single
// writer at a time.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrDuplicateAnalysis: the document name is already registered.
	ErrDuplicateAnalysis = errors.New("duplicate analysis")
	// ErrEntryNotFound: no entry has the requested id.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrInvalidEntry: a registration or persisted row is malformed.
	ErrInvalidEntry = errors.New("invalid ledger entry")
)

// Columns is the persisted column order. The header row is mandatory.
var Columns = []string{"ID", "Date", "DocumentName", "RequirementCount", "Status", "ExecutionTime", "DeliveryPath"}

// Entry is one registered analysis.
type Entry struct {
	ID               int           `json:"id"`
	Timestamp        time.Time     `json:"timestamp"`
	DocumentName     string        `json:"document_name"`
	RequirementCount int           `json:"requirement_count"`
	Status           string        `json:"status"`
	ExecutionTime    time.Duration `json:"execution_time"`
	DeliveryPath     string        `json:"delivery_path"`
}

// MarshalJSON renders ExecutionTime as duration text such as "2m30s".
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		ExecutionTime string `json:"execution_time"`
	}{plain: plain(e), ExecutionTime: e.ExecutionTime.String()})
}

// Registration carries the caller-supplied fields of a new entry.
type Registration struct {
	DocumentName     string
	RequirementCount int
	Status           string
	ExecutionTime    time.Duration
	DeliveryPath     string
}

func (r Registration) validate() error {
	if strings.TrimSpace(r.DocumentName) == "" {
		return fmt.Errorf("%w: document name is required", ErrInvalidEntry)
	}
	if r.RequirementCount < 0 {
		return fmt.Errorf("%w: requirement count %d is negative", ErrInvalidEntry, r.RequirementCount)
	}
	if r.ExecutionTime < 0 {
		return fmt.Errorf("%w: execution time %s is negative", ErrInvalidEntry, r.ExecutionTime)
	}
	return nil
}

// Store persists entries. Load returns every entry in insertion order.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Append(ctx context.Context, e Entry) error
}

// Ledger enforces the registration rules over a Store. Reads always go to
// the store.
type Ledger struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a Ledger backed by store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	return l
}

// Register appends a new entry and returns it. A document name already in
// the ledger (exact, case-sensitive match) fails with ErrDuplicateAnalysis and
// leaves the ledger unchanged.
func (l *Ledger) Register(ctx context.Context, r Registration) (Entry, error) {
	if err := r.validate(); err != nil {
		return Entry{}, err
	}
	entries, err := l.store.Load(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	for _, e := range entries {
		if e.DocumentName == r.DocumentName {
			return Entry{}, fmt.Errorf("%w: %q was registered as entry %d on %s",
				ErrDuplicateAnalysis, r.DocumentName, e.ID, e.Timestamp.Format(time.RFC3339))
		}
	}

	entry := Entry{
		ID:               len(entries) + 1,
		Timestamp:        l.now().UTC().Truncate(time.Second),
		DocumentName:     r.DocumentName,
		RequirementCount: r.RequirementCount,
		Status:           r.Status,
		ExecutionTime:    r.ExecutionTime,
		DeliveryPath:     r.DeliveryPath,
	}
	if err := l.store.Append(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	l.logger.Info("analysis registered", "id", entry.ID, "document", entry.DocumentName, "requirements", entry.RequirementCount)
	return entry, nil
}

// ListAll returns every entry in insertion order.
func (l *Ledger) ListAll(ctx context.Context) ([]Entry, error) {
	entries, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return entries, nil
}

// GetByID returns the entry with id, or ErrEntryNotFound.
func (l *Ledger) GetByID(ctx context.Context, id int) (Entry, error) {
	entries, err := l.ListAll(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: id %d", ErrEntryNotFound, id)
}

// Count returns the number of entries.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	entries, err := l.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

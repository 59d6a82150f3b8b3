// SPDX-License-Identifier: Apache-2.0

// Package sources provides PageTextSource implementations for the document
// formats the analyzer accepts.
package sources

import (
	"context"
	"fmt"
	"io"

	"github.com/editalproj/edital-mcp/internal/structure"
)

// Document is an opened PageTextSource that must be closed after use.
type Document interface {
	structure.PageTextSource
	io.Closer
}

// Opener opens documents of one format.
type Opener interface {
	CanHandle(path string) bool
	Open(ctx context.Context, path string) (Document, error)
	Name() string
}

// Registry selects an Opener for a path.
type Registry struct {
	openers []Opener
}

// NewRegistry creates a Registry. Opener order matters: the first one whose
// CanHandle accepts the path is used.
func NewRegistry(openers ...Opener) *Registry {
	return &Registry{openers: openers}
}

// Default returns a Registry with every built-in opener registered.
// The PDF opener sniffs content, so it is registered first.
func Default() *Registry {
	return NewRegistry(
		NewPDFOpener(),
		NewFixtureOpener(),
		NewTextOpener(),
	)
}

// Open opens path with the first opener that can handle it.
func (r *Registry) Open(ctx context.Context, path string) (Document, string, error) {
	opener, err := r.selectOpener(path)
	if err != nil {
		return nil, "", err
	}
	doc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, opener.Name(), fmt.Errorf("opener %q failed: %w", opener.Name(), err)
	}
	return doc, opener.Name(), nil
}

func (r *Registry) selectOpener(path string) (Opener, error) {
	for _, o := range r.openers {
		if o.CanHandle(path) {
			return o, nil
		}
	}
	return nil, fmt.Errorf("unsupported document format: no opener found for %q", path)
}

// RegisteredOpeners returns the names of all registered openers.
func (r *Registry) RegisteredOpeners() []string {
	names := make([]string, len(r.openers))
	for i, o := range r.openers {
		names[i] = o.Name()
	}
	return names
}

// Memory is an in-memory document, one string per page.
type Memory struct {
	pages []string
}

// NewMemory creates a Memory document.
func NewMemory(pages ...string) *Memory {
	return &Memory{pages: pages}
}

func (m *Memory) PageCount(context.Context) (int, error) {
	return len(m.pages), nil
}

func (m *Memory) PageText(_ context.Context, index int) (string, error) {
	if index < 0 || index >= len(m.pages) {
		return "", fmt.Errorf("page index %d out of range [0,%d)", index, len(m.pages))
	}
	return m.pages[index], nil
}

func (m *Memory) Close() error {
	return nil
}

// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pageBreak separates pages in text exported by pdftotext and similar tools.
const pageBreak = "\f"

// TextOpener opens plain-text documents whose pages are separated by form feeds.
type TextOpener struct{}

func NewTextOpener() *TextOpener {
	return &TextOpener{}
}

func (o *TextOpener) Name() string {
	return "text"
}

func (o *TextOpener) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return true
	}
	return false
}

func (o *TextOpener) Open(_ context.Context, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text document: %w", err)
	}
	return NewMemory(SplitPages(string(data))...), nil
}

// SplitPages splits text on form feeds. A trailing form feed does not open an
// extra page, and empty input has no pages.
func SplitPages(text string) []string {
	text = strings.TrimSuffix(text, pageBreak)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, pageBreak)
}

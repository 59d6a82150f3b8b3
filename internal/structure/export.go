// SPDX-License-Identifier: Apache-2.0

package structure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var structureSchema string

// Validate checks s against the export schema, including total_items == len(items).
func (s *EditalStructure) Validate() error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode structure: %w", err)
	}
	return validateStructureJSON(data)
}

func validateStructureJSON(data []byte) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(structureSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile structure schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#EditalStructure"))

	doc := cctx.CompileBytes(data)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// WriteStructure validates s and writes it as indented JSON.
func WriteStructure(w io.Writer, s *EditalStructure) error {
	if err := s.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

// ReadStructure decodes a structure document and validates it.
func ReadStructure(r io.Reader) (*EditalStructure, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read structure: %w", err)
	}
	if err := validateStructureJSON(data); err != nil {
		return nil, err
	}
	var s EditalStructure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode structure: %w", err)
	}
	return &s, nil
}

// WriteSelection writes sel as indented JSON.
func WriteSelection(w io.Writer, sel *Selection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(sel)
}

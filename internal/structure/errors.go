// SPDX-License-Identifier: Apache-2.0

package structure

import "errors"

var (
	// ErrDocumentUnreadable: the document is encrypted, corrupted or has no pages.
	// Fatal for the run; no partial output is produced.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrInvalidSelection: a selection expression is malformed or out of range.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrSchemaViolation: a structure document does not satisfy the export schema.
	ErrSchemaViolation = errors.New("structure schema violation")
)

// NoItemsFound is the soft-failure marker stored in EditalStructure.Error.
const NoItemsFound = "No items found"

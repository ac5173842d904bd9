// Package domain defines shared identifier types used across bounded contexts.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment (a SubjectID can never be passed where a RequesterID is
// expected). Construct them via the ParseX functions at trust boundaries;
// direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "aegis/pkg/domain-errors"
)

// SubjectID identifies an individual who declared privacy rights.
type SubjectID uuid.UUID

// RequesterID identifies a registered third party performing lookups.
type RequesterID uuid.UUID

// EntryID identifies a single append-only ledger entry.
type EntryID uuid.UUID

// NewSubjectID returns a fresh random subject ID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewRequesterID returns a fresh random requester ID.
func NewRequesterID() RequesterID { return RequesterID(uuid.New()) }

// NewEntryID returns a fresh random ledger entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseSubjectID constructs a SubjectID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(u), nil
}

// ParseRequesterID constructs a RequesterID from external input.
func ParseRequesterID(s string) (RequesterID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RequesterID{}, err
	}
	return RequesterID(u), nil
}

// ParseEntryID constructs an EntryID from external input.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (id SubjectID) String() string   { return uuid.UUID(id).String() }
func (id RequesterID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id SubjectID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RequesterID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

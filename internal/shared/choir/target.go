// Package choir defines the class-or-group target a song or audio file belongs to.
package choir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"minimusiker_backend/platform/apperr"
)

// Kind distinguishes classes from groups.
type Kind string

const (
	KindClass Kind = "class"
	KindGroup Kind = "group"
)

const legacyGroupPrefix = "group_"

// Target identifies one class or one group. The zero value means "no target".
type Target struct {
	Kind Kind
	ID   uuid.UUID
}

// Class returns a class target.
func Class(id uuid.UUID) Target { return Target{Kind: KindClass, ID: id} }

// Group returns a group target.
func Group(id uuid.UUID) Target { return Target{Kind: KindGroup, ID: id} }

// IsZero reports whether t is unset.
func (t Target) IsZero() bool { return t.Kind == "" }

// IsGroup reports whether t is a group target.
func (t Target) IsGroup() bool { return t.Kind == KindGroup }

// String renders the canonical "kind:uuid" form.
func (t Target) String() string {
	if t.IsZero() {
		return ""
	}
	return string(t.Kind) + ":" + t.ID.String()
}

// Parse accepts "class:<uuid>", "group:<uuid>", the legacy "group_<uuid>"
// form, and a bare uuid (a class).
func Parse(raw string) (Target, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Target{}, apperr.Validation("choir target is required")
	}

	kind := KindClass
	switch {
	case strings.HasPrefix(s, string(KindClass)+":"):
		s = strings.TrimPrefix(s, string(KindClass)+":")
	case strings.HasPrefix(s, string(KindGroup)+":"):
		kind, s = KindGroup, strings.TrimPrefix(s, string(KindGroup)+":")
	case strings.HasPrefix(s, legacyGroupPrefix):
		kind, s = KindGroup, strings.TrimPrefix(s, legacyGroupPrefix)
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return Target{}, apperr.Validation(fmt.Sprintf("invalid choir target %q", raw))
	}
	return Target{Kind: kind, ID: id}, nil
}

// FromColumns builds a target from nullable class/group foreign keys.
func FromColumns(classID, groupID *uuid.UUID) Target {
	switch {
	case classID != nil:
		return Class(*classID)
	case groupID != nil:
		return Group(*groupID)
	default:
		return Target{}
	}
}

// Columns splits t into the nullable class/group foreign keys.
func (t Target) Columns() (classID, groupID *uuid.UUID) {
	id := t.ID
	switch t.Kind {
	case KindClass:
		return &id, nil
	case KindGroup:
		return nil, &id
	default:
		return nil, nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = Target{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Portal roles. Each role owns one /api/<role> namespace.
const (
	RoleAdmin    = "admin"
	RoleTeacher  = "teacher"
	RoleParent   = "parent"
	RoleStaff    = "staff"
	RoleEngineer = "engineer"
)

// Identity represents the verified portal session.
// Handlers read it without depending on how the token was decoded.
type Identity interface {
	// SubjectID returns the session subject (staff/teacher/parent record id).
	SubjectID() string
	// Role returns the portal role the session was issued for.
	Role() string
	// Email returns the session email, used for teacher and parent ownership checks.
	Email() string
	// IsAuthenticated returns true if a session was verified.
	IsAuthenticated() bool
}

type identity struct {
	subjectID     string
	role          string
	email         string
	authenticated bool
}

func (i *identity) SubjectID() string     { return i.subjectID }
func (i *identity) Role() string          { return i.role }
func (i *identity) Email() string         { return i.email }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// NewIdentity builds an authenticated identity. Used by the auth middleware and tests.
func NewIdentity(subjectID, role, email string) Identity {
	return &identity{subjectID: subjectID, role: role, email: email, authenticated: true}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if session info is not present.
func GetIdentity(c *gin.Context) Identity {
	value, ok := c.Get(ContextIdentityKey)
	if !ok {
		return &identity{}
	}
	id, ok := value.(Identity)
	if !ok {
		return &identity{}
	}
	return id
}

// MustGetIdentity extracts the Identity from a Gin context.
// If no session was verified, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Error: "unauthorized"})
		return nil
	}
	return id
}

// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// Handlers read it without depending on how the token was parsed.
type Identity interface {
	UserID() uuid.UUID
	// TenantID returns the workspace the token is scoped to, or nil.
	TenantID() *uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	tenantID      *uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID    { return i.userID }
func (i *identity) TenantID() *uuid.UUID { return i.tenantID }
func (i *identity) Roles() []string      { return i.roles }

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if roles, rolesOK := c.Get(ContextRolesKey); rolesOK {
		roleList, _ = roles.([]string)
	}

	var tenantID *uuid.UUID
	if raw, tenantOK := c.Get(ContextTenantIDKey); tenantOK {
		if tid, ok := raw.(uuid.UUID); ok {
			tenantID = &tid
		}
	}

	return &identity{
		userID:        uid,
		tenantID:      tenantID,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}

// MustGetTenantID returns the caller's tenant, aborting the request when absent.
func MustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	id := MustGetIdentity(c)
	if id == nil {
		return uuid.Nil, false
	}
	tenantID := id.TenantID()
	if tenantID == nil {
		Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}

package services

import (
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID uuid.UUID
	Roles  []string
}

// Has reports whether the actor holds role
func (a Actor) Has(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is a platform admin
func (a Actor) IsAdmin() bool {
	return a.Has(models.RoleAdmin)
}

// owns reports whether the actor may manage the business
func (a Actor) owns(b *models.Business) bool {
	return a.IsAdmin() || b.OwnerID == a.UserID
}

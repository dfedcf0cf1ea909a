package handler

import (
	"net/http"

	"go-storefront-admin/internal/middleware"
	"go-storefront-admin/internal/model"
)

// actorFromRequest describes who issued a mutation for the audit trail.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.UserID = claims.UserID
		actor.Username = claims.Username
		actor.Role = claims.Role
	}
	return actor
}

package middleware

import (
	"net/http"

	"github.com/Aidana2304/SchoolConnect/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TouchPresenceMiddleware refreshes the authenticated user's last_seen on
// every request. It complements the explicit presence signals; the online
// flag itself is only ever set by the client.
func TouchPresenceMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				userID, err := primitive.ObjectIDFromHex(claims.UserID)
				if err == nil {
					_ = userService.TouchLastSeen(r.Context(), userID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

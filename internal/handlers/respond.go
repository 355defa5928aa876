package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	jwtutil "github.com/Aidana2304/SchoolConnect/pkg/jwt"
	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// claimedUserID extracts the caller's object id from the token claims. Tokens
// are minted from a stored user's hex id, so a claim that does not parse is an
// unusable token rather than a bad request: the caller gets a 401 and the
// handler must return without touching the store.
func claimedUserID(w http.ResponseWriter, claims *jwtutil.Claims) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		logger.Log.Warnf("Malformed user id %q in token claims: %v", claims.UserID, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}

// respondError maps the error taxonomy onto HTTP status codes. Validation and
// conflict errors keep their message so the client can show it; store errors
// are surfaced generically and left to the caller's next poll cycle.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperrors.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case apperrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperrors.IsStore(err):
		logger.Log.Errorf("Store failure: %v", err)
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		logger.Log.Errorf("Unhandled error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Aidana2304/SchoolConnect/internal/config"
	"github.com/Aidana2304/SchoolConnect/internal/models"
	"github.com/Aidana2304/SchoolConnect/internal/services"
	jwtutil "github.com/Aidana2304/SchoolConnect/pkg/jwt"
	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"github.com/Aidana2304/SchoolConnect/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles HTTP requests related to accounts, the user directory
// and presence.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		logger.Log.Warnf("Failed to decode registration request: %v", err)
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), &user)
	if err != nil {
		logger.Log.Warnf("Failed to register user: %v", err)
		respondError(w, err)
		return
	}

	logger.Log.Infof("User %s registered", createdUser.ID.Hex())
	writeJSON(w, http.StatusCreated, createdUser)
}

// LoginUserHandler handles user login and returns a JWT.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		logger.Log.Warnf("Failed to decode login request: %v", err)
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		logger.Log.Warnf("Authentication failed for %s: %v", credentials.Email, err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		logger.Log.Errorf("Failed to generate token: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  models.NewPublicUser(user),
	})
}

// GetContactableUsersHandler lists every other user with isFriend and
// isOnline annotations. This is the "all users" view; users never messaged
// appear here too.
func (h *UserHandler) GetContactableUsersHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	viewerID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	users, err := h.Service.GetContactableUsers(r.Context(), viewerID)
	if err != nil {
		logger.Log.Errorf("Failed to list users for %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// GetUserHandler returns a single identity.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user, err := h.Service.GetUser(r.Context(), vars["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewPublicUser(user))
}

// UpdateUserHandler applies a partial profile update to the caller's account.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if vars["id"] != claims.UserID && claims.Role != "admin" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var update map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	// Never allow these through a profile update.
	delete(update, "hashed_password")
	delete(update, "role")
	delete(update, "friends")
	delete(update, "friend_requests")

	user, err := h.Service.UpdateUser(r.Context(), vars["id"], update)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewPublicUser(user))
}

// SetPresenceHandler records the caller's self-reported online state. Clients
// signal online when the messaging view mounts and offline on unmount.
func (h *UserHandler) SetPresenceHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	if err := h.Service.SetPresence(r.Context(), userID, body.Online); err != nil {
		logger.Log.Errorf("Failed to set presence for %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Presence updated"})
}

// GetPresenceHandler returns another user's last self-reported state.
func (h *UserHandler) GetPresenceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	presence, err := h.Service.GetPresence(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presence)
}

// AdminGetAllUsersHandler returns every account. Admin only.
func (h *UserHandler) AdminGetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAllUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

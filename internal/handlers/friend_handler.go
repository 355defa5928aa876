package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Aidana2304/SchoolConnect/internal/services"
	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"github.com/Aidana2304/SchoolConnect/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to friend requests.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		logger.Log.Warn("Unauthorized attempt to send friend request")
		return
	}

	vars := mux.Vars(r)
	receiverID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		logger.Log.Warnf("Invalid receiver ID: %v", err)
		return
	}

	senderID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}

	if err := h.Service.SendFriendRequest(r.Context(), senderID, receiverID); err != nil {
		logger.Log.Warnf("Failed to send friend request: %v", err)
		respondError(w, err)
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", claims.UserID, vars["id"])
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Friend request sent"})
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to get pending requests: %v", err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// RespondToFriendRequestHandler accepts or rejects the pending request from
// the user named in the path.
func (h *FriendHandler) RespondToFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	fromID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		logger.Log.Warnf("Failed to decode response body: %v", err)
		return
	}
	defer r.Body.Close()

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}

	if body.Accept {
		err = h.Service.AcceptRequest(r.Context(), userID, fromID)
	} else {
		err = h.Service.RejectRequest(r.Context(), userID, fromID)
	}
	if err != nil {
		logger.Log.Errorf("Failed to respond to friend request from %s: %v", vars["id"], err)
		respondError(w, err)
		return
	}

	logger.Log.Infof("User %s responded to friend request from %s (accepted: %v)", claims.UserID, vars["id"], body.Accept)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Friend request response recorded",
	})
}

// GetFriendsHandler returns a list of the user's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch friends for user %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriendHandler dissolves a friendship.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	friendID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	if err := h.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		logger.Log.Errorf("Failed to remove friend %s: %v", vars["id"], err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}

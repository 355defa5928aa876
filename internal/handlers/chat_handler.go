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

// ChatHandler manages HTTP endpoints for direct messages, conversations and
// the unread badge. All reads here are poll targets for the client.
type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

// GetConversationsHandler returns the viewer's conversation summaries,
// newest first.
func (h *ChatHandler) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	viewerID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	conversations, err := h.Service.GetConversations(r.Context(), viewerID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch conversations for %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

// GetMessagesHandler returns the exchange with the given user and, as a side
// effect, marks the counterpart's messages to the viewer as read.
func (h *ChatHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	otherID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	viewerID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	messages, err := h.Service.GetConversationMessages(r.Context(), viewerID, otherID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch messages for %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// SendMessageHandler stores a new message to the given user.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	receiverID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	senderID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	msg, err := h.Service.SendMessage(r.Context(), senderID, receiverID, body.Content)
	if err != nil {
		logger.Log.Warnf("Failed to send message from %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// GetUnreadCountHandler returns the viewer's unread badge value.
func (h *ChatHandler) GetUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, ok := claimedUserID(w, claims)
	if !ok {
		return
	}
	count, err := h.Service.CountUnread(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to count unread for %s: %v", claims.UserID, err)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Aidana2304/SchoolConnect/internal/config"
	"github.com/Aidana2304/SchoolConnect/internal/database"
	"github.com/Aidana2304/SchoolConnect/internal/handlers"
	"github.com/Aidana2304/SchoolConnect/internal/repository"
	cron "github.com/Aidana2304/SchoolConnect/internal/scheduler"
	"github.com/Aidana2304/SchoolConnect/internal/services"
	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"github.com/Aidana2304/SchoolConnect/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	chatService := services.NewChatService(messageRepo, userRepo)
	friendService := services.NewFriendService(userRepo, notificationService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	chatHandler := handlers.NewChatHandler(chatService)
	friendHandler := handlers.NewFriendHandler(friendService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Clients poll the read endpoints on fixed intervals; cap how hard a
	// single user may hammer them.
	pollLimiter := middleware.NewPollLimiter(cfg.PollRatePerMinute, cfg.PollBurst)

	router := mux.NewRouter()

	// Public account routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user/directory routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.Use(middleware.TouchPresenceMiddleware(userService))
	protectedUserRoutes.Handle("", pollLimiter.Middleware(http.HandlerFunc(userHandler.GetContactableUsersHandler))).Methods("GET")
	protectedUserRoutes.HandleFunc("/presence", userHandler.SetPresenceHandler).Methods("POST")
	protectedUserRoutes.Handle("/{id}/presence", pollLimiter.Middleware(http.HandlerFunc(userHandler.GetPresenceHandler))).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.UpdateUserHandler).Methods("PATCH")

	// Friend routes
	protectedFriendRoutes := router.PathPrefix("/friends").Subrouter()
	protectedFriendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedFriendRoutes.Use(middleware.TouchPresenceMiddleware(userService))
	protectedFriendRoutes.HandleFunc("/{id}/request", friendHandler.SendFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests/{id}/respond", friendHandler.RespondToFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("", friendHandler.GetFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/{id}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Chat routes
	protectedChatRoutes := router.PathPrefix("/chat").Subrouter()
	protectedChatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedChatRoutes.Use(middleware.TouchPresenceMiddleware(userService))
	protectedChatRoutes.Handle("/conversations", pollLimiter.Middleware(http.HandlerFunc(chatHandler.GetConversationsHandler))).Methods("GET")
	protectedChatRoutes.Handle("/unread/count", pollLimiter.Middleware(http.HandlerFunc(chatHandler.GetUnreadCountHandler))).Methods("GET")
	protectedChatRoutes.Handle("/{id}/messages", pollLimiter.Middleware(http.HandlerFunc(chatHandler.GetMessagesHandler))).Methods("GET")
	protectedChatRoutes.HandleFunc("/{id}/messages", chatHandler.SendMessageHandler).Methods("POST")

	// Notification routes
	protectedNotificationRoutes := router.PathPrefix("/notifications").Subrouter()
	protectedNotificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedNotificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	protectedNotificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users", userHandler.AdminGetAllUsersHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Periodic cleanup and audits
	cron.StartMaintenanceJobs(notificationService, userService)

	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // adjust to frontend origin
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

package cron

import (
	"context"
	"time"

	"github.com/Aidana2304/SchoolConnect/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartMaintenanceJobs schedules the periodic cleanup and audit tasks.
func StartMaintenanceJobs(notificationService *services.NotificationService, userService *services.UserService) {
	c := cron.New()

	// Expired notifications
	c.AddFunc("@hourly", func() {
		err := notificationService.DeleteExpiredNotifications(context.Background())
		if err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	})

	// Presence is self-reported and has no timeout; log users whose online
	// flag looks abandoned so operators can see the staleness.
	c.AddFunc("@every 30m", func() {
		err := userService.AuditStalePresence(context.Background(), 24*time.Hour)
		if err != nil {
			logrus.WithError(err).Error("AuditStalePresence failed")
		}
	})

	c.Start()
}

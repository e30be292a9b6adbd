package services

import (
	"time"

	"go.uber.org/zap"

	"tribe-fitness/internal/database"
	"tribe-fitness/internal/rewards"
)

type ServiceManager struct {
	Notification *NotificationService
	Analytics    *AnalyticsService
	Journal      *JournalService
	repository   *database.Repository
	logger       *zap.Logger
}

func NewServiceManager(db *database.Database, logger *zap.Logger, loc *time.Location) *ServiceManager {
	repo := database.NewRepository(db)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ServiceManager{
		Notification: nil,
		Analytics:    NewAnalyticsService(repo, loc),
		Journal:      NewJournalService(repo, logger.Named("journal"), loc),
		repository:   repo,
		logger:       logger,
	}
}

// Repository exposes the journal queries to read-only callers.
func (sm *ServiceManager) Repository() *database.Repository {
	return sm.repository
}

func (sm *ServiceManager) SetNotificationSender(sender NotificationSender, source SnapshotSource, catalog *rewards.Catalog) {
	sm.Notification = NewNotificationService(sender, source, sm.Analytics, catalog, sm.logger.Named("notify"))
}

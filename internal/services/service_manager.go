package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/cache"
	"github.com/SaidjonAlixon/testblok/internal/events"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

// ServiceManagerConfig carries the shared infrastructure every service may
// draw from. RedisClient, CacheManager, Publisher and Bus are optional; the
// services degrade to direct execution when they are nil.
type ServiceManagerConfig struct {
	RedisClient  *redis.Client
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher
	Bus          *events.Bus

	// TokenTTL bounds the lifetime of issued bearer tokens.
	TokenTTL time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	userService         UserService
	directionService    DirectionService
	sessionService      SessionService
	leaderboardService  LeaderboardService
	paymentService      PaymentService
	notificationService NotificationService
	supportService      SupportService
	dashboardService    DashboardService
	exportService       ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.RedisClient, sm.config.TokenTTL)
	sm.directionService = NewDirectionService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.sessionService = NewSessionService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Publisher)
	sm.leaderboardService = NewLeaderboardService(sm.repo, sm.db, sm.logger, sm.config.CacheManager)
	sm.paymentService = NewPaymentService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Publisher)
	sm.notificationService = NewNotificationService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Bus, sm.config.Publisher)
	sm.supportService = NewSupportService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger, sm.directionService, sm.leaderboardService, sm.notificationService)
	sm.exportService = NewExportService(sm.repo, sm.db, sm.logger, sm.leaderboardService)

	// Notification consumers run for the life of the process.
	if err := sm.notificationService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notification consumers: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.notificationService.Stop(); err != nil {
		sm.logger.Error("failed to stop notification consumers", "error", err)
	}

	sm.shutdown = true
	return nil
}

// Service getters
func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.userService
}

func (sm *serviceManager) Direction() DirectionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.directionService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) Leaderboard() LeaderboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.leaderboardService
}

func (sm *serviceManager) Payment() PaymentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.paymentService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationService
}

func (sm *serviceManager) Support() SupportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.supportService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.dashboardService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every entity repository behind one accessor.
type Repository interface {
	User() UserRepository
	Direction() DirectionRepository
	Result() ResultRepository
	Payment() PaymentRepository
	Notification() NotificationRepository
	Ticket() TicketRepository
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError normalizes the driver's not-found signal; every read path
// above the repository layer checks this, never gorm's sentinel directly.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Registry bundles every repository bound to one *gorm.DB handle. Use cases
// that must be atomic run against a transaction-bound Registry obtained from
// WithTransaction, so multi-row writes commit or roll back together.
type Registry struct {
	db *gorm.DB

	Organizations *OrganizationRepository
	Users         *UserRepository
	Topics        *TopicRepository
	Tasks         *TaskRepository
	GuestAccess   *GuestTopicAccessRepository
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:            db,
		Organizations: NewOrganizationRepository(db),
		Users:         NewUserRepository(db),
		Topics:        NewTopicRepository(db),
		Tasks:         NewTaskRepository(db),
		GuestAccess:   NewGuestTopicAccessRepository(db),
	}
}

// WithTransaction runs fn against a Registry whose repositories all share a
// single database transaction. fn returning an error rolls everything back.
func (r *Registry) WithTransaction(ctx context.Context, fn func(tx *Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistry(tx))
	})
}

// IsDuplicate reports whether err is a unique-constraint violation, covering
// both gorm's translated error and the raw postgres error code.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

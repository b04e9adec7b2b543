package repository

import (
	"errors"

	"github.com/tapevault/backoffice/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors.
// This keeps infrastructure concerns (database errors) within the infrastructure layer.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(currentErr, gorm.ErrForeignKeyViolated):
			return domain.ErrValidation
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// notFoundAs maps a missing record onto the entity specific not-found error.
func notFoundAs(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return MapGormErrorToDomain(err)
}

// requireAffected turns an update that touched no live row into notFound.
func requireAffected(res *gorm.DB, notFound error) error {
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs the given function in a transaction boundary, providing a UnitOfWork for repository access.
// Every repository obtained from the UnitOfWork passed to fn shares that transaction.
//
//	err := uow.Do(ctx, func(tx UnitOfWork) error {
//		repo, err := tx.JarRepository()
//		...
//	})
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type bound to the current session.
	GetRepository(repoType reflect.Type) (any, error)

	DealRepository() (DealRepository, error)
	OrderRepository() (OrderRepository, error)
	CustomerRepository() (CustomerRepository, error)
	JarRepository() (JarRepository, error)
	JarTransactionRepository() (JarTransactionRepository, error)
	InvoiceRepository() (InvoiceRepository, error)
	RecipientRepository() (RecipientRepository, error)
	WiseTransactionRepository() (WiseTransactionRepository, error)
	TechnicianPaymentRepository() (TechnicianPaymentRepository, error)
	TechnicianRepository() (TechnicianRepository, error)
	CalendarUserRepository() (CalendarUserRepository, error)
}

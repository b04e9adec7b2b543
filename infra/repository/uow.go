package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do share the transaction; outside Do they
// use the root session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			typeOf[repository.DealRepository]():              func(db *gorm.DB) any { return NewDealRepository(db) },
			typeOf[repository.OrderRepository]():             func(db *gorm.DB) any { return NewOrderRepository(db) },
			typeOf[repository.CustomerRepository]():          func(db *gorm.DB) any { return NewCustomerRepository(db) },
			typeOf[repository.JarRepository]():               func(db *gorm.DB) any { return NewJarRepository(db) },
			typeOf[repository.JarTransactionRepository]():    func(db *gorm.DB) any { return NewJarTransactionRepository(db) },
			typeOf[repository.InvoiceRepository]():           func(db *gorm.DB) any { return NewInvoiceRepository(db) },
			typeOf[repository.RecipientRepository]():         func(db *gorm.DB) any { return NewRecipientRepository(db) },
			typeOf[repository.WiseTransactionRepository]():   func(db *gorm.DB) any { return NewWiseTransactionRepository(db) },
			typeOf[repository.TechnicianPaymentRepository](): func(db *gorm.DB) any { return NewTechnicianPaymentRepository(db) },
			typeOf[repository.TechnicianRepository]():        func(db *gorm.DB) any { return NewTechnicianRepository(db) },
			typeOf[repository.CalendarUserRepository]():      func(db *gorm.DB) any { return NewCalendarUserRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic access to repositories bound to the current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func get[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(typeOf[T]())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository %T does not implement %v", repoAny, typeOf[T]())
	}
	return repo, nil
}

func (u *UoW) DealRepository() (repository.DealRepository, error) {
	return get[repository.DealRepository](u)
}

func (u *UoW) OrderRepository() (repository.OrderRepository, error) {
	return get[repository.OrderRepository](u)
}

func (u *UoW) CustomerRepository() (repository.CustomerRepository, error) {
	return get[repository.CustomerRepository](u)
}

func (u *UoW) JarRepository() (repository.JarRepository, error) {
	return get[repository.JarRepository](u)
}

func (u *UoW) JarTransactionRepository() (repository.JarTransactionRepository, error) {
	return get[repository.JarTransactionRepository](u)
}

func (u *UoW) InvoiceRepository() (repository.InvoiceRepository, error) {
	return get[repository.InvoiceRepository](u)
}

func (u *UoW) RecipientRepository() (repository.RecipientRepository, error) {
	return get[repository.RecipientRepository](u)
}

func (u *UoW) WiseTransactionRepository() (repository.WiseTransactionRepository, error) {
	return get[repository.WiseTransactionRepository](u)
}

func (u *UoW) TechnicianPaymentRepository() (repository.TechnicianPaymentRepository, error) {
	return get[repository.TechnicianPaymentRepository](u)
}

func (u *UoW) TechnicianRepository() (repository.TechnicianRepository, error) {
	return get[repository.TechnicianRepository](u)
}

func (u *UoW) CalendarUserRepository() (repository.CalendarUserRepository, error) {
	return get[repository.CalendarUserRepository](u)
}

package mocks

import (
	"context"
	"errors"
	"reflect"

	"github.com/tapevault/backoffice/pkg/repository"
)

// UnitOfWork hands out the repository mocks it holds. Do runs fn against
// the same mocks; set DoErr to fail the transaction before fn runs.
type UnitOfWork struct {
	Deals              *DealRepository
	Orders             *OrderRepository
	Customers          *CustomerRepository
	Jars               *JarRepository
	JarTransactions    *JarTransactionRepository
	Invoices           *InvoiceRepository
	Recipients         *RecipientRepository
	WiseTransactions   *WiseTransactionRepository
	TechnicianPayments *TechnicianPaymentRepository
	Technicians        *TechnicianRepository
	CalendarUsers      *CalendarUserRepository

	DoErr   error
	DoCalls int
}

// NewUnitOfWork wires a fresh mock for every repository.
func NewUnitOfWork(t TestingT) *UnitOfWork {
	return &UnitOfWork{
		Deals:              NewDealRepository(t),
		Orders:             NewOrderRepository(t),
		Customers:          NewCustomerRepository(t),
		Jars:               NewJarRepository(t),
		JarTransactions:    NewJarTransactionRepository(t),
		Invoices:           NewInvoiceRepository(t),
		Recipients:         NewRecipientRepository(t),
		WiseTransactions:   NewWiseTransactionRepository(t),
		TechnicianPayments: NewTechnicianPaymentRepository(t),
		Technicians:        NewTechnicianRepository(t),
		CalendarUsers:      NewCalendarUserRepository(t),
	}
}

func (u *UnitOfWork) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	u.DoCalls++
	if u.DoErr != nil {
		return u.DoErr
	}
	return fn(u)
}

func (u *UnitOfWork) GetRepository(repoType reflect.Type) (any, error) {
	return nil, errors.New("mock unit of work: use the typed getters")
}

var errNoRepo = errors.New("mock unit of work: repository not configured")

func (u *UnitOfWork) DealRepository() (repository.DealRepository, error) {
	if u.Deals == nil {
		return nil, errNoRepo
	}
	return u.Deals, nil
}

func (u *UnitOfWork) OrderRepository() (repository.OrderRepository, error) {
	if u.Orders == nil {
		return nil, errNoRepo
	}
	return u.Orders, nil
}

func (u *UnitOfWork) CustomerRepository() (repository.CustomerRepository, error) {
	if u.Customers == nil {
		return nil, errNoRepo
	}
	return u.Customers, nil
}

func (u *UnitOfWork) JarRepository() (repository.JarRepository, error) {
	if u.Jars == nil {
		return nil, errNoRepo
	}
	return u.Jars, nil
}

func (u *UnitOfWork) JarTransactionRepository() (repository.JarTransactionRepository, error) {
	if u.JarTransactions == nil {
		return nil, errNoRepo
	}
	return u.JarTransactions, nil
}

func (u *UnitOfWork) InvoiceRepository() (repository.InvoiceRepository, error) {
	if u.Invoices == nil {
		return nil, errNoRepo
	}
	return u.Invoices, nil
}

func (u *UnitOfWork) RecipientRepository() (repository.RecipientRepository, error) {
	if u.Recipients == nil {
		return nil, errNoRepo
	}
	return u.Recipients, nil
}

func (u *UnitOfWork) WiseTransactionRepository() (repository.WiseTransactionRepository, error) {
	if u.WiseTransactions == nil {
		return nil, errNoRepo
	}
	return u.WiseTransactions, nil
}

func (u *UnitOfWork) TechnicianPaymentRepository() (repository.TechnicianPaymentRepository, error) {
	if u.TechnicianPayments == nil {
		return nil, errNoRepo
	}
	return u.TechnicianPayments, nil
}

func (u *UnitOfWork) TechnicianRepository() (repository.TechnicianRepository, error) {
	if u.Technicians == nil {
		return nil, errNoRepo
	}
	return u.Technicians, nil
}

func (u *UnitOfWork) CalendarUserRepository() (repository.CalendarUserRepository, error) {
	if u.CalendarUsers == nil {
		return nil, errNoRepo
	}
	return u.CalendarUsers, nil
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

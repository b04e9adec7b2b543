package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/pkg/repository"
)

func TestUoW_DoCommitsAndSharesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		jars, err := txUow.JarRepository()
		require.NoError(t, err)
		impl, ok := jars.(*jarRepository)
		require.True(t, ok)
		assert.Equal(t, txUow.(*UoW).tx, impl.db)

		ledger, err := txUow.JarTransactionRepository()
		require.NoError(t, err)
		assert.NotNil(t, ledger)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_TypeSafeMethodsOutsideTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	getters := []func() (any, error){
		func() (any, error) { return uow.DealRepository() },
		func() (any, error) { return uow.OrderRepository() },
		func() (any, error) { return uow.CustomerRepository() },
		func() (any, error) { return uow.JarRepository() },
		func() (any, error) { return uow.JarTransactionRepository() },
		func() (any, error) { return uow.InvoiceRepository() },
		func() (any, error) { return uow.RecipientRepository() },
		func() (any, error) { return uow.WiseTransactionRepository() },
		func() (any, error) { return uow.TechnicianPaymentRepository() },
		func() (any, error) { return uow.TechnicianRepository() },
		func() (any, error) { return uow.CalendarUserRepository() },
	}
	for _, get := range getters {
		repo, err := get()
		require.NoError(t, err)
		assert.NotNil(t, repo)
	}

	jars, err := uow.JarRepository()
	require.NoError(t, err)
	assert.Equal(t, db, jars.(*jarRepository).db)
}

func TestUoW_GetRepositoryUnsupported(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	_, err := uow.GetRepository(reflect.TypeOf(""))
	assert.Error(t, err)
}

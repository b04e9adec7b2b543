package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a caller is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrProvider is returned when an external provider call fails
	ErrProvider = errors.New("external provider error")
	// ErrConflict is the parent of all idempotency and state conflicts
	ErrConflict = errors.New("conflict")
)

// Not-found family
var (
	ErrDealNotFound             = wrap(ErrNotFound, "deal not found")
	ErrJarNotFound              = wrap(ErrNotFound, "jar not found")
	ErrInvoiceNotFound          = wrap(ErrNotFound, "invoice not found")
	ErrOrderNotFound            = wrap(ErrNotFound, "order not found")
	ErrTechnicianNotFound       = wrap(ErrNotFound, "technician not found")
	ErrRecipientNotFound        = wrap(ErrNotFound, "recipient account not found")
	ErrDefaultRecipientNotFound = wrap(ErrNotFound, "technician has no default recipient account")
	ErrCalendarUserNotFound     = wrap(ErrNotFound, "calendar user not found")
)

// Validation family
var (
	ErrAmountMustBePositive   = wrap(ErrValidation, "amount must be positive")
	ErrCountryRequired        = wrap(ErrValidation, "country code is required")
	ErrNoActiveJars           = wrap(ErrValidation, "no active jars with a positive percentage for country")
	ErrAllocationExceeded     = wrap(ErrValidation, "total jar percentage exceeds 100")
	ErrInvalidPercent         = wrap(ErrValidation, "percentage must be between 0 and 100")
	ErrUnsupportedCountry     = wrap(ErrValidation, "country is not configured for payouts")
	ErrSalaryPercentMissing   = wrap(ErrValidation, "no salary percentage configured for country")
	ErrDefaultRecipientDelete = wrap(ErrValidation, "default recipient account cannot be deleted")
	ErrEmptyInvoice           = wrap(ErrValidation, "invoice must have at least one item")
	ErrCurrencyRequired       = wrap(ErrValidation, "currency is required")
	ErrCurrencyMismatch       = wrap(ErrValidation, "jar currency does not match deal currency")
)

// Conflict family
var (
	ErrAlreadyTransferred = wrap(ErrConflict, "deal has already been transferred to jars")
	ErrTransferInProgress = wrap(ErrConflict, "a jar transfer for this deal is already in progress")
	ErrInvoiceAlreadyPaid = wrap(ErrConflict, "invoice is already paid")
	ErrInvalidTransition  = wrap(ErrConflict, "invalid invoice status transition")
	ErrDealAlreadyPaid    = wrap(ErrConflict, "deal is already paid")
	ErrPayoutInProgress   = wrap(ErrConflict, "invoice payout outcome is not recorded yet")
)

// ErrSendMoneyFailed is returned when any step of a salary payout fails.
var ErrSendMoneyFailed = wrap(ErrProvider, "failed to send money")

type sentinel struct {
	parent error
	msg    string
}

func (e *sentinel) Error() string { return e.msg }
func (e *sentinel) Unwrap() error { return e.parent }

func wrap(parent error, msg string) error {
	return &sentinel{parent: parent, msg: msg}
}

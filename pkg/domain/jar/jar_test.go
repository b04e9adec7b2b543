package jar

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tapevault/backoffice/pkg/domain"
)

func pct(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestValidateAllocation(t *testing.T) {
	tests := []struct {
		name    string
		jars    []*Jar
		wantErr error
	}{
		{"under limit", []*Jar{{TransferPercent: pct(30), IsActive: true}, {TransferPercent: pct(20), IsActive: true}}, nil},
		{"exactly 100", []*Jar{{TransferPercent: pct(60), IsActive: true}, {TransferPercent: pct(40), IsActive: true}}, nil},
		{"over limit", []*Jar{{TransferPercent: pct(60), IsActive: true}, {TransferPercent: pct(50), IsActive: true}}, domain.ErrAllocationExceeded},
		{"inactive ignored", []*Jar{{TransferPercent: pct(60), IsActive: true}, {TransferPercent: pct(50), IsActive: false}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAllocation(tt.jars)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestValidatePercent(t *testing.T) {
	assert.NoError(t, ValidatePercent(pct(0)))
	assert.NoError(t, ValidatePercent(pct(100)))
	assert.ErrorIs(t, ValidatePercent(pct(-1)), domain.ErrInvalidPercent)
	assert.ErrorIs(t, ValidatePercent(pct(101)), domain.ErrInvalidPercent)
}

func TestReplaceOrAppend(t *testing.T) {
	a := &Jar{ID: uuid.New(), TransferPercent: pct(30), IsActive: true}
	b := &Jar{ID: uuid.New(), TransferPercent: pct(20), IsActive: true}

	edited := &Jar{ID: a.ID, TransferPercent: pct(90), IsActive: true}
	got := ReplaceOrAppend([]*Jar{a, b}, edited)
	assert.Len(t, got, 2)
	assert.True(t, TotalPercent(got).Equal(pct(110)))

	added := &Jar{ID: uuid.New(), TransferPercent: pct(50), IsActive: true}
	got = ReplaceOrAppend([]*Jar{a, b}, added)
	assert.Len(t, got, 3)
	assert.True(t, TotalPercent(got).Equal(pct(100)))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCompleted.IsSuccessful())
	assert.True(t, StatusPending.IsSuccessful())
	assert.True(t, StatusProcessing.IsSuccessful())
	assert.False(t, StatusFailed.IsSuccessful())

	assert.Equal(t, StatusCompleted, ParseStatus("COMPLETED"))
	assert.Equal(t, StatusPending, ParseStatus(""))
	assert.Equal(t, StatusFailed, ParseStatus("REJECTED"))
	assert.Equal(t, StatusProcessing, ParseStatus("incoming_payment_waiting"))
}

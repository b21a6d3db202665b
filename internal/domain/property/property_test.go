package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewProperty(t *testing.T) {
	p, err := NewProperty("12 Harbor St", 1000, 5000, "usd")
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), p.TotalTokens)
	assert.Equal(t, int64(1000), p.AvailableTokens)
	assert.Equal(t, int64(0), p.SoldTokens())
}

func TestNewProperty_Validation(t *testing.T) {
	tests := []struct {
		name        string
		propName    string
		totalTokens int64
		tokenPrice  int64
		currency    string
	}{
		{"empty name", "", 1000, 5000, "usd"},
		{"zero tokens", "12 Harbor St", 0, 5000, "usd"},
		{"negative tokens", "12 Harbor St", -1, 5000, "usd"},
		{"zero price", "12 Harbor St", 1000, 0, "usd"},
		{"bad currency", "12 Harbor St", 1000, 5000, "us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProperty(tt.propName, tt.totalTokens, tt.tokenPrice, tt.currency)
			assert.Error(t, err)
		})
	}
}

func TestProperty_CanFulfill(t *testing.T) {
	p, err := NewProperty("12 Harbor St", 10, 5000, "usd")
	assert.NoError(t, err)

	assert.True(t, p.CanFulfill(1))
	assert.True(t, p.CanFulfill(10))
	assert.False(t, p.CanFulfill(11))
	assert.False(t, p.CanFulfill(0))
	assert.False(t, p.CanFulfill(-1))
}

func TestNewShare(t *testing.T) {
	share, err := NewShare(uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), share.TokensOwned)
	assert.Equal(t, int64(0), share.CostBasis)

	_, err = NewShare(uuid.Nil, uuid.New())
	assert.Error(t, err)

	_, err = NewShare(uuid.New(), uuid.Nil)
	assert.Error(t, err)
}

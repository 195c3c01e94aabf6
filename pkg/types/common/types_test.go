package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewID_IsUUID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
	assert.NoError(t, id.Validate())
}

func TestID_Validate(t *testing.T) {
	assert.Error(t, ID("").Validate())
	assert.Error(t, ID("   ").Validate())
	assert.NoError(t, ID("T-15").Validate())
}

func TestParty_IsZero(t *testing.T) {
	assert.True(t, Party{}.IsZero())
	assert.True(t, Party{Email: "a@b.c"}.IsZero())
	assert.False(t, Party{Name: "Acme"}.IsZero())
	assert.False(t, Party{ID: "p1"}.IsZero())
}

func TestPagination(t *testing.T) {
	tests := []struct {
		p      Pagination
		offset int
		limit  int
	}{
		{Pagination{}, 0, 50},
		{Pagination{Page: 1, PageSize: 20}, 0, 20},
		{Pagination{Page: 3, PageSize: 20}, 40, 20},
		{Pagination{Page: 2, PageSize: 1000}, 500, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.offset, tt.p.Offset())
		assert.Equal(t, tt.limit, tt.p.Limit())
	}
}

//Personal.AI order the ending

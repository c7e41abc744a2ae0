package validator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	PropertyID int64  `json:"property_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	Guests     int    `json:"guests" binding:"gte=1"`
}

func TestFields_UsesJSONNames(t *testing.T) {
	UseJSONNames()

	err := binding.Validator.ValidateStruct(&request{Guests: 0})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, "required", fields["property_id"])
	assert.Equal(t, "required", fields["start_date"])
	assert.Equal(t, "gte", fields["guests"])
}

func TestFields_IgnoresOtherErrors(t *testing.T) {
	err := json.Unmarshal([]byte("{"), &struct{}{})
	require.Error(t, err)

	assert.Nil(t, Fields(err))
	assert.Nil(t, Fields(errors.New("boom")))
}

package validator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateInput struct {
	Title  string `json:"title" binding:"required"`
	Score  int    `json:"score" binding:"min=1,max=10"`
	Status string `json:"status" binding:"omitempty,oneof=rumored released"`
}

func TestFieldErrors_KeyedByJSONName(t *testing.T) {
	err := binding.Validator.ValidateStruct(&rateInput{Score: 11, Status: "lost"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "This field is required.", fields["title"])
	assert.Equal(t, "Ensure this value is less than or equal to 10.", fields["score"])
	assert.Equal(t, "Must be one of: rumored, released.", fields["status"])
}

func TestFieldErrors_TypeMismatch(t *testing.T) {
	var in rateInput
	err := json.Unmarshal([]byte(`{"score":"ten"}`), &in)
	require.Error(t, err)

	assert.Equal(t, map[string]string{"score": "Expected a value of type int."}, FieldErrors(err))
}

func TestFieldErrors_Fallback(t *testing.T) {
	assert.Equal(t, map[string]string{"non_field_errors": "EOF"}, FieldErrors(errors.New("EOF")))
}

func TestValidUsername(t *testing.T) {
	for _, ok := range []string{"villeneuve", "j.doe+films@x", "ridley_scott_1a2b3"} {
		assert.True(t, ValidUsername(ok), ok)
	}
	for _, bad := range []string{"", "bad name!", "semi;colon"} {
		assert.False(t, ValidUsername(bad), bad)
	}
}

package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelope(t *testing.T) {
	data, err := json.Marshal(Error("something went wrong"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"something went wrong"}`, string(data))

	data, err = json.Marshal(ErrorCode("access denied", "NO_TOKEN"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"access denied","code":"NO_TOKEN"}`, string(data))
}

func TestValidationErrorListsAllFields(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	v := validator.New()
	err := v.Struct(req{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, "Validation failed", resp.Message)
	require.Len(t, resp.Errors, 2)

	fields := []string{resp.Errors[0].Field, resp.Errors[1].Field}
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Password")
}

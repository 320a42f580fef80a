package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=healthcare_worker parent"`
	Age      int    `json:"age" validate:"min=0"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(signUp{Email: "not-an-email", Password: "123", Role: "admin", Age: -1})
	require.Error(t, err)

	got := map[string]string{}
	for _, fe := range FieldErrors(err) {
		got[fe.Field] = fe.Message
	}

	assert.Equal(t, "must be a valid email address", got["email"])
	assert.Equal(t, "must be at least 6 characters", got["password"])
	assert.Equal(t, "must be one of: healthcare_worker, parent", got["role"])
	assert.Equal(t, "must be at least 0", got["age"])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(errors.New("plain")))
	assert.Nil(t, FieldErrors(nil))
}

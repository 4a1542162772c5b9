package validation

import (
	"testing"

	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "ann"}))

	err := Struct(sample{Name: "", Email: "nope"})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))
	assert.Contains(t, err.Error(), "Name failed rule 'required'")
	assert.Contains(t, err.Error(), "Email failed rule 'email'")
}

func TestVar(t *testing.T) {
	require.NoError(t, Var("formKey", "client_intake", "required,max=100"))

	err := Var("formKey", "", "required")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))
	assert.Contains(t, err.Error(), "formKey failed rule 'required'")
}

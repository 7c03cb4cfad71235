package validation

import (
	"errors"
	"testing"

	"storesync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	ZipCode string `json:"zip_code" validate:"required,digits,len=8"`
}

type signup struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Age     int     `json:"age" validate:"min=18"`
	Address address `json:"address"`
}

func TestStructValid(t *testing.T) {
	v := New(logger.NewNop())

	fields := v.Struct(signup{Name: "Ana", Email: "ana@loja.com", Age: 30, Address: address{ZipCode: "01310100"}})
	assert.Nil(t, fields)
}

func TestStructCollectsEveryField(t *testing.T) {
	v := New(logger.NewNop())

	fields := v.Struct(signup{Email: "nope", Age: 3, Address: address{ZipCode: "0131-010"}})
	require.Len(t, fields, 4)

	byField := map[string]FieldError{}
	for _, f := range fields {
		byField[f.Field] = f
	}

	assert.Equal(t, "required", byField["name"].Rule)
	assert.Equal(t, "name is required", byField["name"].Message)
	assert.Equal(t, "email", byField["email"].Rule)
	assert.Equal(t, "age must be at least 18", byField["age"].Message)
	assert.Equal(t, "digits", byField["address.zip_code"].Rule)
}

func TestFieldsWrapsForeignErrors(t *testing.T) {
	fields := Fields(errors.New("boom"))
	require.Len(t, fields, 1)
	assert.Equal(t, "boom", fields[0].Message)
	assert.Empty(t, fields[0].Field)
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("0123"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("12 3"))
	assert.False(t, IsDigits("-12"))
	assert.False(t, IsDigits("1.5"))
}

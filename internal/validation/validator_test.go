package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appointmentInput struct {
	Type   string `json:"type_soin" validate:"required,treatment"`
	Date   string `json:"date" validate:"required,date"`
	Time   string `json:"time" validate:"required,clock"`
	Method string `json:"method" validate:"omitempty,method"`
}

type userInput struct {
	Role  string `json:"role" validate:"required,role"`
	Kind  string `json:"type" validate:"required,txtype"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(appointmentInput{Type: "ostéopathie", Date: "2024-05-15", Time: "09:00", Method: "TPE"}))
	assert.NoError(t, v.Struct(userInput{Role: "secretaire", Kind: "depense", Phone: "06 01 02 03 04"}))

	err := v.Struct(appointmentInput{Type: "yoga", Date: "15/05/2024", Time: "9h", Method: "Bitcoin"})
	require.Error(t, err)
	fields := map[string]string{}
	for _, fe := range v.ValidationErrors(err) {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{
		"type_soin": "treatment",
		"date":      "date",
		"time":      "clock",
		"method":    "method",
	}, fields)

	err = v.Struct(userInput{Role: "root", Kind: "refund", Phone: "abc"})
	require.Error(t, err)
	assert.Len(t, v.ValidationErrors(err), 3)
}

func TestValidationErrorsIgnoresOtherErrors(t *testing.T) {
	v := New()
	assert.Nil(t, v.ValidationErrors(nil))
	assert.Nil(t, v.ValidationErrors(assert.AnError))
}

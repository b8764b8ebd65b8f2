package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Key  string `json:"key" validate:"required"`
	Code string `json:"code,omitempty" validate:"required"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Key: "k", Code: "c"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(&sample{})
	assert.EqualError(t, err, "field 'key' failed 'required'; field 'code' failed 'required'")
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ingest struct {
	Filename string `json:"filename" validate:"required,max=16,filename"`
	Items    []item `json:"items" validate:"dive"`
}

type item struct {
	Name string `json:"name" validate:"max=3"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&ingest{Filename: "call.wav"}))

	err := v.Validate(&ingest{})
	assert.ErrorContains(t, err, "filename: required")

	err = v.Validate(&ingest{Filename: "../etc/passwd"})
	assert.ErrorContains(t, err, "filename: filename")

	err = v.Validate(&ingest{Filename: "a.wav", Items: []item{{Name: "long"}}})
	assert.ErrorContains(t, err, "items[0].name: max=3")
}

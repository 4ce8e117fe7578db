package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type attributePayload struct {
	Code  string `json:"code" validate:"required,alpha_dash,max=100"`
	Type  string `json:"type" validate:"required,in=text,textarea,boolean"`
	Group string `json:"group" validate:"nullable,alpha_dash"`
	Max   int    `json:"max" validate:"nullable,gte=1,lte=5"`
}

func TestStructPasses(t *testing.T) {
	errs := Struct(attributePayload{Code: "color_name", Type: "text", Max: 3})
	assert.Empty(t, errs)
}

func TestRequired(t *testing.T) {
	errs := Struct(attributePayload{Type: "text"})
	assert.Contains(t, errs, "code")
}

func TestAlphaDash(t *testing.T) {
	errs := Struct(attributePayload{Code: "bad code!", Type: "text"})
	assert.Contains(t, errs, "code")
}

func TestInListWithTrailingRules(t *testing.T) {
	// The in= list is followed by another rule in splitRules territory.
	type p struct {
		Connector string `json:"connector" validate:"required,in=csv,xlsx,max=10"`
	}
	assert.Empty(t, Struct(p{Connector: "xlsx"}))
	assert.Contains(t, Struct(p{Connector: "pdf"}), "connector")
}

func TestNullableSkips(t *testing.T) {
	errs := Struct(attributePayload{Code: "ok", Type: "text", Group: ""})
	assert.NotContains(t, errs, "group")
}

func TestNumericBounds(t *testing.T) {
	errs := Struct(attributePayload{Code: "ok", Type: "text", Max: 9})
	assert.Contains(t, errs, "max")
}

func TestMaxLength(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	errs := Struct(attributePayload{Code: string(long), Type: "text"})
	assert.Contains(t, errs, "code")
}

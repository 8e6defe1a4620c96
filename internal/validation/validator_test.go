package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Title  string  `json:"title" validate:"required"`
	Scope  string  `json:"scope" validate:"oneof=personal team global"`
	Target float64 `json:"target_value" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	err := Struct(sample{Title: "ok", Scope: "team", Target: 1})
	if err != nil {
		t.Fatalf("valid struct err = %v", err)
	}

	err = Struct(sample{Scope: "galaxy"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *Error", err)
	}

	for _, field := range []string{"title", "scope", "target_value"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field %q in %v", field, verr.Fields)
		}
	}
}

func TestMerge(t *testing.T) {
	if err := Merge(nil, nil); err != nil {
		t.Fatalf("Merge(nil, nil) = %v", err)
	}

	err := Merge(Field("a", "bad"), nil, Field("b", "worse"))
	var verr *Error
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("Merge = %v", err)
	}

	other := errors.New("db down")
	if err := Merge(Field("a", "bad"), other); !errors.Is(err, other) {
		t.Fatalf("Merge with non-validation error = %v", err)
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("title", "  "); err == nil {
		t.Error("blank title accepted")
	}
	if err := ValidateTitle("title", "Ship it"); err != nil {
		t.Errorf("valid title rejected: %v", err)
	}
}

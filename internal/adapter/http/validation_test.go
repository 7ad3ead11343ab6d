package http

import (
	"errors"
	"strings"
	"testing"
)

func TestHex32Validation(t *testing.T) {
	type P struct {
		ActorID string `validate:"hex32"`
	}
	cv := NewValidator()

	// valid: 32-char lowercase hex
	ok := P{ActorID: strings.Repeat("a", 32)}
	if err := cv.Validate(ok); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}

	// invalid samples
	for _, s := range []string{
		"",                                  // empty
		strings.Repeat("A", 32),             // uppercase
		"deadbeef",                          // too short
		strings.Repeat("g", 32),             // non-hex char
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",   // 31 chars
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x", // 33 with extra
	} {
		err := cv.Validate(P{ActorID: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if !containsFieldMsg(ToFieldErrors(err), "ActorID", "32-char lowercase hex") {
			t.Fatalf("expected hex32 message for %q", s)
		}
	}
}

func TestMoneyValidation(t *testing.T) {
	type P struct {
		Amount string `validate:"money"`
	}
	cv := NewValidator()

	for _, v := range []string{"0", "150", "150.5", "150.50", " 12.00 "} {
		if err := cv.Validate(P{Amount: v}); err != nil {
			t.Fatalf("expected money OK for %q, got %v", v, err)
		}
	}
	for _, v := range []string{"", "abc", "-1", "1.234", "1e-3"} {
		err := cv.Validate(P{Amount: v})
		if err == nil {
			t.Fatalf("expected money error for %q", v)
		}
		if !containsFieldMsg(ToFieldErrors(err), "Amount", "at most 2 decimal places") {
			t.Fatalf("expected money message for %q", v)
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name string `validate:"required"`
		Min  int    `validate:"gte=1"`
		Max  int    `validate:"lte=5"`
		Mode string `validate:"oneof=cash check"`
		Date string `validate:"datetime=2006-01-02"`
	}
	cv := NewValidator()

	err := cv.Validate(P{Min: 0, Max: 6, Mode: "gold", Date: "01/02/2024"})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	if !containsFieldMsg(fe, "Min", "greater than or equal to 1") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	if !containsFieldMsg(fe, "Mode", "one of cash check") {
		t.Fatalf("missing oneof message for Mode: %+v", fe)
	}
	if !containsFieldMsg(fe, "Date", "2006-01-02") {
		t.Fatalf("missing datetime message for Date: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}

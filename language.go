package tikakit

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// undeterminedCode is what language detectors report when they cannot decide
const undeterminedCode = "un"

// Language is the result of language identification.
type Language struct {
	// Code is an ISO 639-1 language code such as "en"
	Code string `json:"language"`

	// ReasonablyCertain is the engine's confidence flag for Code
	ReasonablyCertain bool `json:"reasonablyCertain"`
}

// String implements fmt.Stringer
func (l Language) String() string {
	if l.ReasonablyCertain {
		return l.Code
	}
	return l.Code + "?"
}

// Validate checks that Code is a two-letter ISO 639-1 code.
func (l Language) Validate() error {
	code := strings.ToLower(strings.TrimSpace(l.Code))
	if len(code) != 2 || code == undeterminedCode {
		return fmt.Errorf("language code %q is not ISO 639-1", l.Code)
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return fmt.Errorf("language code %q: %w", l.Code, err)
	}
	if base.String() != code {
		return fmt.Errorf("language code %q is not ISO 639-1", l.Code)
	}
	return nil
}

// Tag returns the BCP 47 tag for Code
func (l Language) Tag() (language.Tag, error) {
	return language.Parse(l.Code)
}

// DecodeLanguage parses an engine language payload of the form
// {"language":"en","reasonablyCertain":true} and validates the code.
func DecodeLanguage(payload []byte) (Language, error) {
	var l Language
	if err := json.Unmarshal(payload, &l); err != nil {
		return Language{}, &SerializationError{Op: "language", Payload: string(payload), Err: err}
	}
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if err := l.Validate(); err != nil {
		return Language{}, &SerializationError{Op: "language", Payload: string(payload), Err: err}
	}
	return l, nil
}

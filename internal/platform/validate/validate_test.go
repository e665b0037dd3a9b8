// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "Sunday Paper", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_URL checks the publication URL rule: absolute http(s) only.
*/
func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		isValid bool
	}{
		{"https", "https://acx.substack.com", true},
		{"http", "http://acx.substack.com", true},
		{"with_path", "https://www.noahpinion.blog/archive", true},
		{"no_scheme", "acx.substack.com", false},
		{"wrong_scheme", "ftp://acx.substack.com", false},
		{"bare_text", "not a url", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.URL("url", tt.url)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_UUID distinguishes durable identifiers from provisional
handles.
*/
func TestValidator_UUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"lowercase_uuid", "0192a7b4-0000-7000-8000-000000000001", true},
		{"uppercase_uuid", "0192A7B4-0000-7000-8000-000000000001", true},
		{"handle", "astralcodexten", false},
		{"truncated", "0192a7b4-0000-7000", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.UUID("id", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
			assert.Equal(t, tt.isValid, validate.IsUUID(tt.value))
		})
	}
}

/*
TestValidator_Custom checks the escape hatch used for enum and invariant
checks.
*/
func TestValidator_Custom(t *testing.T) {
	v := &validate.Validator{}
	v.Custom("format", false, "never added")
	assert.False(t, v.HasErrors())

	v.Custom("format", true, "Must be one of: newspaper, essay")
	require.True(t, v.HasErrors())

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Equal(t, "format", ae.Details[0].Field)
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("title", "Sunday Paper").
		MaxLen("title", "Sunday Paper", 120).
		Email("target_email", "reader@example.com").
		URL("url", "https://acx.substack.com").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").               // Fails
		Email("target_email", "not-a-mail"). // Fails
		URL("url", "no-scheme").             // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}

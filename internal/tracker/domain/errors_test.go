package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundErrorsIncludeLookupKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"project", &ProjectNotFoundError{Key: "TEST"}, `project "TEST" not found`},
		{"version", &VersionNotFoundError{Name: "1.0", ProjectKey: "TEST"}, `version "1.0" not found in project "TEST"`},
		{"issue", &IssueNotFoundError{Key: "TEST-1"}, `issue "TEST-1" not found`},
		{"issue type", &IssueTypeNotFoundError{Name: "Release Request"}, `issue type "Release Request" not found: configure the tracker instance`},
		{"link type", &IssueLinkTypeNotFoundError{Name: "Include"}, `issue link type "Include" not found: configure the tracker instance`},
		{"field", &FieldNotFoundError{Name: "Highlight"}, `custom field "Highlight" not found: configure the tracker instance`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, IsNotFound(tt.err))
		})
	}
}

func TestIsNotFoundSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("looking up replacement: %w", &VersionNotFoundError{Name: "2.0", ProjectKey: "P"})
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(assert.AnError))
	assert.False(t, IsNotFound(nil))
}

func TestValidationErrorJoinsMessages(t *testing.T) {
	err := NewValidationError("create version", "24.03.12.01", []string{
		"name already in use",
		"release date in the past",
	})
	assert.Equal(t, "create version 24.03.12.01 failed: name already in use, release date in the past", err.Error())
}

func TestSearchEngineErrorWrapsCause(t *testing.T) {
	err := &SearchEngineError{Message: "search failed", Err: assert.AnError}
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "search engine: search failed")
}

func TestInternalErrorCarriesEntityKey(t *testing.T) {
	err := &InternalError{EntityKey: "TEST-7", Message: "could not create attachment", Err: assert.AnError}
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "TEST-7")
}

func TestMessageSetJoinedErrors(t *testing.T) {
	ms := MessageSet{Errors: []string{"a", "b"}, Warnings: []string{"w"}}
	assert.True(t, ms.HasErrors())
	assert.True(t, ms.HasWarnings())
	assert.Equal(t, "a, b", ms.JoinedErrors())
	assert.False(t, MessageSet{}.HasErrors())
}

func TestForReleased(t *testing.T) {
	assert.Equal(t, ResolutionDone, ForReleased(true))
	assert.Equal(t, ResolutionUnresolved, ForReleased(false))
}

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllPermission(t *testing.T) {
	p, err := NewAllPermission(ResourceDevelopers)
	require.NoError(t, err)

	assert.Equal(t, ResourceDevelopers, p.Resource)
	assert.Equal(t, PermissionScopeAll, p.Scope)
	assert.Nil(t, p.ResourceID)
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, p.Validate())
}

func TestNewAllPermission_RejectsBlankResource(t *testing.T) {
	for _, resource := range []string{"", "  "} {
		p, err := NewAllPermission(resource)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestNewSpecificPermission(t *testing.T) {
	p, err := NewSpecificPermission(ResourceDevelopers, "dev-1")
	require.NoError(t, err)

	assert.Equal(t, PermissionScopeSpecific, p.Scope)
	require.NotNil(t, p.ResourceID)
	assert.Equal(t, "dev-1", *p.ResourceID)
	assert.Equal(t, "dev-1", p.ResourceIDValue())
	assert.NoError(t, p.Validate())
}

func TestNewSpecificPermission_RejectsBlankInput(t *testing.T) {
	cases := []struct {
		name       string
		resource   string
		resourceID string
	}{
		{"blank resource", " ", "dev-1"},
		{"empty resource id", ResourceDevelopers, ""},
		{"whitespace resource id", ResourceDevelopers, "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewSpecificPermission(tc.resource, tc.resourceID)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestPermission_Validate_RejectsInconsistentPairs(t *testing.T) {
	id := "dev-1"
	empty := ""
	cases := []struct {
		name string
		p    Permission
	}{
		{"all with id", Permission{Resource: ResourceDevelopers, Scope: PermissionScopeAll, ResourceID: &id}},
		{"specific without id", Permission{Resource: ResourceDevelopers, Scope: PermissionScopeSpecific}},
		{"specific with empty id", Permission{Resource: ResourceDevelopers, Scope: PermissionScopeSpecific, ResourceID: &empty}},
		{"unknown scope", Permission{Resource: ResourceDevelopers, Scope: "Some"}},
		{"missing resource", Permission{Scope: PermissionScopeAll}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.p.Validate(), ErrValidation))
		})
	}
}

func TestAPIError_IsMatchesByCode(t *testing.T) {
	err := NewAccessDeniedError("開発者")
	wrapped := errors.Join(errors.New("context"), err)

	assert.True(t, errors.Is(err, ErrAccessDenied))
	assert.True(t, errors.Is(wrapped, ErrAccessDenied))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(NewNotFoundError("開発者", "x"), ErrAccessDenied))
}

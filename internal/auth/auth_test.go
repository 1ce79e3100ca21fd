//go:build unit

package auth

import (
	"testing"

	"event-site/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicies(t *testing.T) {
	e, err := NewMemoryEnforcer()
	require.NoError(t, err)
	SeedDefaultPolicies(e, logger.Nop())
	SeedDefaultPolicies(e, logger.Nop())

	policies, err := e.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, len(DefaultPolicies()), "seeding twice adds nothing")

	tests := []struct {
		sub, obj, act string
		want          bool
	}{
		{RoleAnonymous, "/", "GET", true},
		{RoleAnonymous, "/portfolio", "GET", true},
		{RoleAnonymous, "/contact", "POST", true},
		{RoleAnonymous, "/admin/login", "POST", true},
		{RoleAnonymous, "/admin", "GET", false},
		{RoleAnonymous, "/admin/events", "GET", false},
		{RoleAnonymous, "/admin/api/events/sequence", "POST", false},
		{RoleAnonymous, "/about", "POST", false},
		{RoleAdmin, "/admin", "GET", true},
		{RoleAdmin, "/admin/events/3/edit", "POST", true},
		{RoleAdmin, "/admin/api/events/sequence", "POST", true},
		{RoleAdmin, "/portfolio", "GET", true},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.sub, tt.obj, tt.act)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s %s", tt.sub, tt.act, tt.obj)
	}
}

package auth

import (
	"fmt"

	"event-site/internal/logger"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies returns the baseline rules: the public site for everyone
// and the whole admin area for administrators.
func DefaultPolicies() [][]string {
	return [][]string{
		{RoleAnonymous, "/", "GET"},
		{RoleAnonymous, "/portfolio", "GET"},
		{RoleAnonymous, "/about", "GET"},
		{RoleAnonymous, "/services", "GET"},
		{RoleAnonymous, "/contact", "GET"},
		{RoleAnonymous, "/contact", "POST"},
		{RoleAnonymous, "/robots.txt", "GET"},
		{RoleAnonymous, "/sitemap.xml", "GET"},
		{RoleAnonymous, "/admin/login", "GET"},
		{RoleAnonymous, "/admin/login", "POST"},
		{RoleAnonymous, "/auth/oidc/login", "GET"},
		{RoleAnonymous, "/auth/oidc/callback", "GET"},

		{RoleAdmin, "/admin", "GET"},
		{RoleAdmin, "/admin/*", "*"},
	}
}

// SeedDefaultPolicies adds every missing default policy and the
// admin -> anonymous role link. It is idempotent and safe to run on every
// start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies() {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	if has, _ := e.HasRoleForUser(RoleAdmin, RoleAnonymous); !has {
		if _, err := e.AddRoleForUser(RoleAdmin, RoleAnonymous); err != nil {
			log.Error(err, "Failed to add role 'admin' -> 'anonymous'")
		}
	}
	log.Info("Policy seeding complete.")
}

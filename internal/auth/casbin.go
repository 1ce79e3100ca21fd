// Package auth wires role-based authorization and optional single sign-on.
package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// Roles used as Casbin subjects. Admins inherit every anonymous permission.
const (
	RoleAnonymous = "anonymous"
	RoleAdmin     = "admin"
)

// modelText is a RBAC model with path wildcards (keyMatch2) and "*" as a
// catch-all action.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// NewModel returns the authorization model.
func NewModel() (model.Model, error) {
	return model.NewModelFromString(modelText)
}

// NewEnforcer creates a Casbin enforcer whose policies are stored in the
// casbin_rule table of the application database and loads them.
func NewEnforcer(driverName, dsn string) (*casbin.Enforcer, error) {
	m, err := NewModel()
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}

	adapter := sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	})

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer creates an enforcer without persistent storage.
func NewMemoryEnforcer() (*casbin.Enforcer, error) {
	m, err := NewModel()
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	return enforcer, nil
}

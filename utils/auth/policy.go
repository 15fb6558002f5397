package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/sahilchouksey/elearning-api/model"
)

// Capability is an (object, action) pair checked against the role table
type Capability struct {
	Object string
	Action string
}

func (c Capability) String() string {
	return c.Object + ":" + c.Action
}

var (
	CapBrowseCatalog  = Capability{"catalog", "browse"}
	CapEnroll         = Capability{"enrollment", "create"}
	CapWatchVideo     = Capability{"video", "watch"}
	CapRate           = Capability{"rating", "create"}
	CapTeach          = Capability{"course", "teach"}
	CapManageCatalog  = Capability{"catalog", "manage"}
	CapManagePayments = Capability{"payment", "manage"}
	CapManageTrainers = Capability{"trainer", "manage"}
	CapViewAnalytics  = Capability{"analytics", "view"}
)

// rolePolicies is the role-capability table
var rolePolicies = map[model.Role][]Capability{
	model.RoleStudent: {CapBrowseCatalog, CapEnroll, CapWatchVideo, CapRate},
	model.RoleTrainer: {CapBrowseCatalog, CapTeach},
	model.RoleManager: {
		CapBrowseCatalog,
		CapManageCatalog,
		CapManagePayments,
		CapManageTrainers,
		CapViewAnalytics,
	},
}

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Policy answers "may this role do that" from the role-capability table
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the enforcer from the built-in role table
func NewPolicy() (*Policy, error) {
	m, err := casbinmodel.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	for role, caps := range rolePolicies {
		for _, c := range caps {
			if _, err := enforcer.AddPolicy(string(role), c.Object, c.Action); err != nil {
				return nil, fmt.Errorf("failed to add policy %s %s: %w", role, c, err)
			}
		}
	}

	return &Policy{enforcer: enforcer}, nil
}

// MustPolicy is NewPolicy for wiring code where the built-in table cannot fail to load
func MustPolicy() *Policy {
	p, err := NewPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

// Allows reports whether role holds capability c. Unknown roles hold nothing.
func (p *Policy) Allows(role model.Role, c Capability) bool {
	if p == nil || !role.Valid() {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), c.Object, c.Action)
	return err == nil && ok
}

// RequestContext is the caller identity passed explicitly into every workflow operation
type RequestContext struct {
	UserID uint
	Role   model.Role
	policy *Policy
}

// NewRequestContext binds a caller to the policy used for capability checks
func NewRequestContext(userID uint, role model.Role, policy *Policy) RequestContext {
	return RequestContext{UserID: userID, Role: role, policy: policy}
}

// Can reports whether the caller holds capability c
func (rc RequestContext) Can(c Capability) bool {
	return rc.UserID != 0 && rc.policy.Allows(rc.Role, c)
}

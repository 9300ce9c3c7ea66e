// Package authz decides who may see or change clinical records.
//
// Two checks compose every decision:
//
//   - Role permissions: which role may perform which action on which
//     resource. These live in an in-memory casbin RBAC model built at
//     startup.
//   - Ownership: a doctor may only touch records where they are the doctor
//     and a patient only records where they are the patient. There is no
//     administrative override.
package authz

import (
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// Resource names a protected kind of record.
type Resource string

// Action names an operation on a resource.
type Action string

const (
	ResourceAppointment Resource = "appointment"
	ResourceReport      Resource = "report"
	ResourceDirectory   Resource = "directory"

	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
	ActionDelete Action = "delete"
)

// ErrForbidden is returned by Require when the role lacks the permission.
var ErrForbidden = errors.New("forbidden")

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// defaultRules is the role/resource/action table.
var defaultRules = [][]string{
	{string(domain.RoleDoctor), string(ResourceAppointment), string(ActionRead)},
	{string(domain.RoleDoctor), string(ResourceAppointment), string(ActionCreate)},
	{string(domain.RoleDoctor), string(ResourceAppointment), string(ActionUpdate)},
	{string(domain.RoleDoctor), string(ResourceAppointment), string(ActionCancel)},
	{string(domain.RoleDoctor), string(ResourceAppointment), string(ActionDelete)},
	{string(domain.RoleDoctor), string(ResourceReport), string(ActionCreate)},
	{string(domain.RoleDoctor), string(ResourceReport), string(ActionRead)},
	{string(domain.RoleDoctor), string(ResourceDirectory), string(ActionRead)},

	{string(domain.RolePatient), string(ResourceAppointment), string(ActionRead)},
	{string(domain.RolePatient), string(ResourceAppointment), string(ActionCancel)},
	{string(domain.RolePatient), string(ResourceReport), string(ActionRead)},
	{string(domain.RolePatient), string(ResourceDirectory), string(ActionRead)},
}

// Policy evaluates role permissions and record ownership.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy builds the in-memory enforcer with the default rule table.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultRules); err != nil {
		return nil, fmt.Errorf("authz rules: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// MustNewPolicy is like NewPolicy but panics on error. The model and rules
// are compiled in, so a failure is a programming error.
func MustNewPolicy() *Policy {
	p, err := NewPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

// Allowed reports whether p's role grants act on obj. Unknown roles are
// denied.
func (pol *Policy) Allowed(p domain.Principal, obj Resource, act Action) bool {
	if !p.Role.Valid() {
		return false
	}
	ok, err := pol.enforcer.Enforce(string(p.Role), string(obj), string(act))
	return err == nil && ok
}

// Require returns ErrForbidden unless Allowed.
func (pol *Policy) Require(p domain.Principal, obj Resource, act Action) error {
	if !pol.Allowed(p, obj, act) {
		return ErrForbidden
	}
	return nil
}

// CanAccess reports whether p participates in a record owned by doctorID and
// patientID in the capacity of its role.
func CanAccess(p domain.Principal, doctorID, patientID uint) bool {
	switch p.Role {
	case domain.RoleDoctor:
		return p.ID != 0 && p.ID == doctorID
	case domain.RolePatient:
		return p.ID != 0 && p.ID == patientID
	}
	return false
}

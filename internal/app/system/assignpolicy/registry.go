package assignpolicy

import (
	"errors"
	"sort"
)

// Page kinds, used in routes.
const (
	KindCurricula = "curricula"
	KindPupils    = "pupils"
	KindTeachers  = "teachers"
)

// ErrUnknownKind is returned by Registry.Build for an unregistered kind.
var ErrUnknownKind = errors.New("assignpolicy: unknown page kind")

// ErrMissingParam is returned when a page is built without a required id.
var ErrMissingParam = errors.New("assignpolicy: missing page parameter")

// Params identify one page instance.
type Params struct {
	TenantID    string
	SectionID   string
	SectionName string
	Archived    bool
}

// Builder constructs a Policy from route parameters.
type Builder func(Params) (Policy, error)

// Registry maps page kinds to builders.
type Registry struct {
	builders map[string]Builder
	roles    map[string][]string
}

// NewRegistry returns a registry holding the three dashboard pages and the
// account types allowed to open them.
func NewRegistry() *Registry {
	r := &Registry{builders: map[string]Builder{}, roles: map[string][]string{}}
	r.Register(KindCurricula, []string{"root"}, func(p Params) (Policy, error) {
		if p.TenantID == "" {
			return nil, ErrMissingParam
		}
		return NewCurricula(p.TenantID), nil
	})
	r.Register(KindPupils, []string{"root", "tenant_admin", "teacher"}, func(p Params) (Policy, error) {
		if p.TenantID == "" || p.SectionID == "" {
			return nil, ErrMissingParam
		}
		return NewSectionPupils(p.TenantID, p.SectionID, p.SectionName, p.Archived), nil
	})
	r.Register(KindTeachers, []string{"root", "tenant_admin"}, func(p Params) (Policy, error) {
		if p.TenantID == "" {
			return nil, ErrMissingParam
		}
		return NewTenantTeachers(p.TenantID), nil
	})
	return r
}

// Register adds or replaces a page kind.
func (r *Registry) Register(kind string, roles []string, b Builder) {
	r.builders[kind] = b
	r.roles[kind] = roles
}

// Build returns the policy for kind.
func (r *Registry) Build(kind string, p Params) (Policy, error) {
	b, ok := r.builders[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return b(p)
}

// Roles returns the account types allowed to open kind.
func (r *Registry) Roles(kind string) []string {
	return r.roles[kind]
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

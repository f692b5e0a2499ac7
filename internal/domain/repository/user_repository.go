package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
// The service pre-checks by lookup, but the unique index is the final word
// when two registrations race.
var ErrDuplicateEmail = errors.New("email already registered")

// ListFilter narrows a user listing. Nil fields mean "no constraint".
// When both are set, the department constraint drives the query and the
// active flag is applied as a refinement over its result.
type ListFilter struct {
	Department *string
	Active     *bool
}

// UserPatch carries a partial update. Only non-nil fields are written;
// email is immutable and therefore absent here.
type UserPatch struct {
	FullName   *string
	Department *string
	JobTitle   *string
	Active     *bool
}

// Apply copies the set fields of the patch onto the user, leaving unset
// fields untouched.
func (p UserPatch) Apply(u *entity.User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Department != nil {
		u.Department = p.Department
	}
	if p.JobTitle != nil {
		u.JobTitle = p.JobTitle
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

// UserRepository defines the persistence boundary for user records.
// Lookups return (nil, nil) when no record matches: absence is a normal
// outcome, not an error.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.User, error)
	Update(ctx context.Context, id int64, patch UserPatch) (*entity.User, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

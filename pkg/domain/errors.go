package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateMember      = errors.New("duplicate_member")
	ErrNotAMember           = errors.New("not_a_member")
	ErrNotImprisoned        = errors.New("not_imprisoned")
	ErrNoSuccessorAvailable = errors.New("no_successor_available")
	ErrUnknownMember        = errors.New("unknown_member")
	ErrSelfReference        = errors.New("self_reference")
	ErrHierarchyCycle       = errors.New("hierarchy_cycle")
	ErrNoOrganization       = errors.New("no_organization")
	ErrAlreadyFounded       = errors.New("organization_already_founded")
)

// Operation names carried by MemberError.
const (
	OpFound     = "found"
	OpRecruit   = "add_member"
	OpImprison  = "send_to_prison"
	OpRelease   = "release_from_prison"
	OpSetBoss   = "set_boss"
	OpCompare   = "compare_members"
	OpBigBosses = "find_big_bosses"
)

// MemberError attaches the failing operation and member to a sentinel error.
type MemberError struct {
	Op  string
	ID  MemberID
	Err error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s member %d: %v", e.Op, e.ID, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

func memberErr(op string, id MemberID, err error) error {
	return &MemberError{Op: op, ID: id, Err: err}
}

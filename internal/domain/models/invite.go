// internal/domain/models/invite.go
package models

import (
	"strings"
)

// InviteStatus is the lifecycle state of an invitation.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// InviteDecision is the invitee's answer to a pending invite.
type InviteDecision string

const (
	DecisionAccept  InviteDecision = "accept"
	DecisionDecline InviteDecision = "decline"
)

// Status maps a decision to the status the invite ends up in.
func (d InviteDecision) Status() (InviteStatus, bool) {
	switch d {
	case DecisionAccept:
		return InviteAccepted, true
	case DecisionDecline:
		return InviteDeclined, true
	}
	return "", false
}

// PendingInvite is an invitation that may still be waiting for an answer.
//
// ID and TenantID together identify an invite; invite ids are only unique
// within a tenant. Fields holds the full record as returned by the API,
// including denormalized display fields such as pupil_full_name or
// section_name.
type PendingInvite struct {
	ID         string       `json:"-" validate:"required"`
	TenantID   string       `json:"-"`
	Status     InviteStatus `json:"-" validate:"oneof=pending accepted declined"`
	InviteDate string       `json:"-"`
	Fields     Item         `json:"-"`
}

// Key is the composite identity used in URLs ("<id>:<tenant_id>").
func (p PendingInvite) Key() string {
	return InviteKey(p.ID, p.TenantID)
}

// Same reports whether p and o are the same invite.
func (p PendingInvite) Same(o PendingInvite) bool {
	return p.ID == o.ID && p.TenantID == o.TenantID
}

// IsPending reports whether the invite can still be answered or withdrawn.
func (p PendingInvite) IsPending() bool {
	return p.Status == InvitePending
}

// WithStatus returns a copy of p with its status replaced. Fields is copied
// so the original record is not touched.
func (p PendingInvite) WithStatus(s InviteStatus) PendingInvite {
	out := p
	out.Status = s
	out.Fields = p.Fields.Clone()
	if out.Fields == nil {
		out.Fields = Item{}
	}
	out.Fields["status"] = string(s)
	return out
}

// UnmarshalJSON reads the whole record into Fields and lifts the identity
// and status fields out of it.
func (p *PendingInvite) UnmarshalJSON(data []byte) error {
	var it Item
	if err := it.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = InviteFromItem(it)
	return nil
}

// InviteFromItem builds a PendingInvite from a raw record.
func InviteFromItem(it Item) PendingInvite {
	return PendingInvite{
		ID:         it.Key("id"),
		TenantID:   it.Key("tenant_id"),
		Status:     InviteStatus(it.String("status")),
		InviteDate: it.String("invite_date"),
		Fields:     it,
	}
}

// InviteKey joins an invite id and tenant id into one path-safe key.
func InviteKey(id, tenantID string) string {
	return id + ":" + tenantID
}

// SplitInviteKey is the inverse of InviteKey.
func SplitInviteKey(key string) (id, tenantID string, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], key[:i] != ""
}

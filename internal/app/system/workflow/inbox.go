package workflow

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"go.uber.org/zap"
)

// InboxAPI is what an Inbox needs from the remote API.
type InboxAPI interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// InboxConfig describes an invite inbox.
type InboxConfig struct {
	Name         string
	ListPath     string // user id is appended
	RespondPath  string
	TitleField   string
	KeysToIgnore []string
}

// Inbox kinds.
var (
	PupilInbox = InboxConfig{
		Name:        "pupil",
		ListPath:    "/api/common/pupil_section_invites",
		RespondPath: "/api/common/respond_to_section_invite",
		TitleField:  "section_name",
		KeysToIgnore: []string{
			"id", "pupil_id", "section_id", "pupil_full_name", "showActions", "tenant_id",
		},
	}
	TeacherInbox = InboxConfig{
		Name:        "teacher",
		ListPath:    "/api/teacher/invites",
		RespondPath: "/api/teacher/handle_invite",
		TitleField:  "section_name",
		KeysToIgnore: []string{
			"id", "teacher_id", "section_id", "teacher_full_name", "tenant_id", "subjects",
		},
	}
)

type respondRequest struct {
	InviteID any    `json:"invite_id"`
	Action   string `json:"action"`
	TenantID any    `json:"tenant_id"`
}

// Inbox holds one user's received invites and applies accept/decline.
type Inbox struct {
	cfg InboxConfig
	api InboxAPI
	log *zap.Logger

	opMu sync.Mutex

	mu      sync.Mutex
	invites []models.PendingInvite
	errMsg  string
	version uint64
}

// LoadInbox fetches the invites addressed to userID.
func LoadInbox(ctx context.Context, cfg InboxConfig, api InboxAPI, userID string, log *zap.Logger) (*Inbox, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var invites []models.PendingInvite
	if err := api.Get(ctx, cfg.ListPath+"/"+url.PathEscape(userID), &invites); err != nil {
		return nil, fmt.Errorf("load %s invites: %w", cfg.Name, err)
	}
	return &Inbox{cfg: cfg, api: api, log: log, invites: invites}, nil
}

// Config returns the inbox configuration.
func (b *Inbox) Config() InboxConfig { return b.cfg }

// InboxSnapshot is a copy of the inbox for rendering.
type InboxSnapshot struct {
	Invites []models.PendingInvite
	Err     string
	Version uint64
}

// Snapshot returns a copy of the inbox.
func (b *Inbox) Snapshot() InboxSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return InboxSnapshot{
		Invites: append([]models.PendingInvite(nil), b.invites...),
		Err:     b.errMsg,
		Version: b.version,
	}
}

// DismissError clears the error.
func (b *Inbox) DismissError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errMsg != "" {
		b.errMsg = ""
		b.version++
	}
}

// Decide accepts or declines the invite with composite key.
func (b *Inbox) Decide(ctx context.Context, key string, d models.InviteDecision) error {
	if _, ok := d.Status(); !ok {
		return ErrInvalidTransition
	}

	b.opMu.Lock()
	defer b.opMu.Unlock()

	b.mu.Lock()
	var (
		inv   models.PendingInvite
		found bool
	)
	for _, x := range b.invites {
		if x.Key() == key {
			inv, found = x, true
			break
		}
	}
	b.mu.Unlock()
	if !found {
		return ErrUnknownItem
	}
	if !inv.IsPending() {
		return ErrInvalidTransition
	}

	req := respondRequest{InviteID: inv.Fields["id"], Action: string(d), TenantID: inv.Fields["tenant_id"]}
	err := b.api.Post(ctx, b.cfg.RespondPath, req, nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.version++
	if err != nil {
		b.log.Warn("invite decision failed",
			zap.String("inbox", b.cfg.Name),
			zap.String("invite", key),
			zap.String("action", string(d)),
			zap.Error(err))
		b.errMsg = apiclient.UserMessage(err, labels.InviteActionError)
		return err
	}
	next := reconcile.Reduce(reconcile.State{Pending: b.invites}, reconcile.InviteDecided{Invite: inv, Decision: d})
	b.invites = next.Pending
	b.errMsg = ""
	return nil
}

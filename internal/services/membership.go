// Package services – Membership
//
// This file implements the membership verifier: the conjunctive, fail-closed
// check that a user currently satisfies every configured channel-requirement
// before gated content is delivered.
package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mkravets/contentgate/internal/config"
)

// Membership statuses that satisfy a channel requirement.
const (
	statusMember        = "member"
	statusAdministrator = "administrator"
	statusCreator       = "creator"
)

// ChatMemberAPI is the transport contract required by the membership
// verifier: look up a user's membership status in one channel.
type ChatMemberAPI interface {
	// ChatMember returns the user's status in the given channel, as the
	// transport reports it (e.g. "member", "left", "kicked").
	ChatMember(ctx context.Context, chatID string, userID int64) (string, error)
}

// Membership verifies channel-join requirements. The requirement list is
// read-only after construction and safe for concurrent use.
type Membership struct {
	// API performs membership lookups against the transport.
	API ChatMemberAPI
	// Requirements is the configured channel set; empty disables gating.
	Requirements []config.ChannelRequirement
}

// NewMembership constructs a Membership verifier over the given transport
// and requirement set.
func NewMembership(api ChatMemberAPI, reqs []config.ChannelRequirement) *Membership {
	return &Membership{API: api, Requirements: reqs}
}

// IsMember reports whether the user currently satisfies every configured
// channel requirement. An empty requirement set is always satisfied.
//
// The check is conjunctive and fail-closed: any status outside
// {member, administrator, creator}, and any lookup failure (user never
// interacted with the channel, channel unreachable), counts as not a
// member and short-circuits the remaining requirements. A transport error
// is never interpreted as "satisfied".
func (m *Membership) IsMember(ctx context.Context, userID int64) bool {
	for _, req := range m.Requirements {
		status, err := m.API.ChatMember(ctx, req.ChatID, userID)
		if err != nil {
			log.Debug().
				Err(err).
				Int64("user_id", userID).
				Str("channel", req.ChatID).
				Msg("membership lookup failed, treating as not joined")
			return false
		}
		switch status {
		case statusMember, statusAdministrator, statusCreator:
		default:
			log.Debug().
				Int64("user_id", userID).
				Str("channel", req.ChatID).
				Str("status", status).
				Msg("membership requirement not satisfied")
			return false
		}
	}
	return true
}

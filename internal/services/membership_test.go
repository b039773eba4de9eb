package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/contentgate/internal/config"
)

// ----- Fake chat-member API -----

type memberResult struct {
	status string
	err    error
}

type fakeMemberAPI struct {
	results map[string]memberResult
	calls   []string // channel ids queried, in order
}

func (f *fakeMemberAPI) ChatMember(_ context.Context, chatID string, _ int64) (string, error) {
	f.calls = append(f.calls, chatID)
	r, ok := f.results[chatID]
	if !ok {
		return "", errors.New("unknown channel")
	}
	return r.status, r.err
}

func reqs(ids ...string) []config.ChannelRequirement {
	out := make([]config.ChannelRequirement, 0, len(ids))
	for _, id := range ids {
		out = append(out, config.ChannelRequirement{ChatID: id, Name: id, InviteURL: "https://t.me/" + id})
	}
	return out
}

// -----

func TestIsMember_EmptyRequirementSet(t *testing.T) {
	api := &fakeMemberAPI{} // would error on any lookup
	m := NewMembership(api, nil)
	if !m.IsMember(context.Background(), 1) {
		t.Fatalf("empty requirement set must always be satisfied")
	}
	if len(api.calls) != 0 {
		t.Fatalf("no lookups expected for empty set, got %v", api.calls)
	}
}

func TestIsMember_AllSatisfied(t *testing.T) {
	api := &fakeMemberAPI{results: map[string]memberResult{
		"@a": {status: "member"},
		"@b": {status: "administrator"},
		"@c": {status: "creator"},
	}}
	m := NewMembership(api, reqs("@a", "@b", "@c"))
	if !m.IsMember(context.Background(), 1) {
		t.Fatalf("all satisfying statuses should pass")
	}
	if len(api.calls) != 3 {
		t.Fatalf("expected all 3 channels queried, got %v", api.calls)
	}
}

func TestIsMember_ShortCircuitsOnFirstFailure(t *testing.T) {
	api := &fakeMemberAPI{results: map[string]memberResult{
		"@a": {status: "member"},
		"@b": {status: "left"},
		"@c": {status: "member"},
	}}
	m := NewMembership(api, reqs("@a", "@b", "@c"))
	if m.IsMember(context.Background(), 1) {
		t.Fatalf("one unsatisfied requirement must fail the check")
	}
	if len(api.calls) != 2 {
		t.Fatalf("check should stop after the first failure; queried %v", api.calls)
	}
}

func TestIsMember_NonMemberStatuses(t *testing.T) {
	for _, status := range []string{"left", "kicked", "restricted", ""} {
		api := &fakeMemberAPI{results: map[string]memberResult{"@a": {status: status}}}
		m := NewMembership(api, reqs("@a"))
		if m.IsMember(context.Background(), 1) {
			t.Fatalf("status %q must not satisfy the requirement", status)
		}
	}
}

func TestIsMember_LookupErrorFailsClosed(t *testing.T) {
	api := &fakeMemberAPI{results: map[string]memberResult{
		"@a": {err: errors.New("user never interacted with chat")},
		"@b": {status: "member"},
	}}
	m := NewMembership(api, reqs("@a", "@b"))
	if m.IsMember(context.Background(), 1) {
		t.Fatalf("transport error must never be interpreted as satisfied")
	}
	if len(api.calls) != 1 {
		t.Fatalf("check should stop at the erroring channel; queried %v", api.calls)
	}
}

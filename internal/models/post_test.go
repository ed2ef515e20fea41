package models

import (
	"errors"
	"testing"
	"time"

	"crosspost-backend/internal/platform"
)

func TestTransition_AllowedPaths(t *testing.T) {
	tests := []struct {
		from, to PostStatus
	}{
		{StatusDraft, StatusPending},
		{StatusPending, StatusScheduled},
		{StatusPending, StatusPublished},
		{StatusPending, StatusError},
		{StatusScheduled, StatusPublished},
		{StatusScheduled, StatusPending},
		{StatusScheduled, StatusError},
		{StatusError, StatusPending},
		{StatusError, StatusPublished},
		{StatusScheduled, StatusScheduled}, // reschedule keeps the state
		{StatusError, StatusScheduled},     // reschedule of an errored post is a retry
	}

	for _, tc := range tests {
		post := &SocialPost{Status: tc.from}
		if err := post.Transition(tc.to); err != nil {
			t.Errorf("%s -> %s should be allowed: %v", tc.from, tc.to, err)
		}
		if post.Status != tc.to {
			t.Errorf("%s -> %s did not update status", tc.from, tc.to)
		}
	}
}

func TestTransition_PublishedIsTerminal(t *testing.T) {
	for _, to := range []PostStatus{StatusDraft, StatusPending, StatusScheduled, StatusError, StatusPublished} {
		post := &SocialPost{Status: StatusPublished}
		if err := post.Transition(to); err == nil {
			t.Errorf("published -> %s should be rejected", to)
		}
		if post.Status != StatusPublished {
			t.Errorf("published -> %s mutated status", to)
		}
	}
}

func TestTransition_IllegalPaths(t *testing.T) {
	tests := []struct {
		from, to PostStatus
	}{
		{StatusDraft, StatusScheduled},
		{StatusDraft, StatusPublished},
		{StatusPending, StatusDraft},
		{StatusError, StatusDraft},
	}

	for _, tc := range tests {
		post := &SocialPost{Status: tc.from}
		if err := post.Transition(tc.to); err == nil {
			t.Errorf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !StatusPublished.Terminal() {
		t.Error("published should be terminal")
	}
	for _, s := range []PostStatus{StatusDraft, StatusPending, StatusScheduled, StatusError} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestValidateScheduleTime(t *testing.T) {
	now := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	if err := ValidateScheduleTime(platform.YouTube, future, now); err != nil {
		t.Errorf("youtube future schedule should pass: %v", err)
	}

	err := ValidateScheduleTime(platform.Instagram, future, now)
	var pe *platform.PublishError
	if !errors.As(err, &pe) || pe.Kind != platform.KindSchedulingUnsupported {
		t.Errorf("instagram schedule: expected scheduling_unsupported, got %v", err)
	}

	err = ValidateScheduleTime(platform.YouTube, past, now)
	if !errors.As(err, &pe) || pe.Kind != platform.KindInvalidTimestamp {
		t.Errorf("past timestamp: expected invalid_timestamp, got %v", err)
	}

	// Exactly now is not strictly in the future.
	err = ValidateScheduleTime(platform.Facebook, now, now)
	if !errors.As(err, &pe) || pe.Kind != platform.KindInvalidTimestamp {
		t.Errorf("timestamp == now: expected invalid_timestamp, got %v", err)
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// ScheduleFor computes one entry per expiry action spec: the member expiry
// shifted by the spec offset. Non-expiry specs are ignored.
func ScheduleFor(member *model.Member, specs []model.ActionSpec) []model.ScheduleEntry {
	if member == nil || member.Expires.IsZero() {
		return nil
	}
	var entries []model.ScheduleEntry
	for _, spec := range specs {
		if !spec.Type.IsExpiry() {
			continue
		}
		entries = append(entries, model.ScheduleEntry{
			Date:    utils.AddDays(utils.StartOfDay(member.Expires), spec.Offset()),
			Email:   member.PrimaryEmail,
			Type:    spec.Type,
			Expires: member.Expires,
		})
	}
	return entries
}

// IsDue reports whether entry should fire at asOf
func IsDue(entry model.ScheduleEntry, asOf time.Time) bool {
	return entry.IsDue(asOf)
}

// ScheduleBook keeps the persisted expiry schedule of every member
type ScheduleBook struct {
	store port.PropertyStore
	key   string
}

// Entries loads the schedule. Malformed entries are dropped and duplicates
// of the same (member, type) pair collapse to the last one stored.
func (b *ScheduleBook) Entries(ctx context.Context) ([]model.ScheduleEntry, error) {
	stored, err := loadList[model.ScheduleEntry](ctx, b.store, b.key)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(stored))
	entries := make([]model.ScheduleEntry, 0, len(stored))
	for _, entry := range stored {
		if !entry.Valid() {
			slog.DebugContext(ctx, "dropping invalid schedule entry", "type", string(entry.Type))
			continue
		}
		entry.Email = model.NormalizeEmail(entry.Email)
		if i, ok := index[entry.Key()]; ok {
			entries[i] = entry
			continue
		}
		index[entry.Key()] = len(entries)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Replace discards every stored entry of the member and stores entries
// in their place.
func (b *ScheduleBook) Replace(ctx context.Context, email string, entries []model.ScheduleEntry) error {
	email = model.NormalizeEmail(email)
	current, err := b.Entries(ctx)
	if err != nil {
		return err
	}

	kept := current[:0]
	for _, e := range current {
		if e.Email != email {
			kept = append(kept, e)
		}
	}
	for _, e := range entries {
		e.Email = model.NormalizeEmail(e.Email)
		if e.Email != email {
			return errs.NewValidation("schedule entry " + redaction.RedactEmail(e.Email) + " does not belong to " + redaction.RedactEmail(email))
		}
		kept = append(kept, e)
	}

	slog.DebugContext(ctx, "expiry schedule replaced",
		"member", redaction.RedactEmail(email),
		"entries", len(entries),
	)
	return b.save(ctx, kept)
}

// Remove drops every entry of the member
func (b *ScheduleBook) Remove(ctx context.Context, email string) error {
	return b.Replace(ctx, email, nil)
}

// Due returns the entries due at asOf ordered by date
func (b *ScheduleBook) Due(ctx context.Context, asOf time.Time) ([]model.ScheduleEntry, error) {
	entries, err := b.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var due []model.ScheduleEntry
	for _, e := range entries {
		if IsDue(e, asOf) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Date.Before(due[j].Date)
	})
	return due, nil
}

// RemoveEntries drops the given (member, type) pairs, matching on Key and
// the expiry they were computed from so a concurrent recompute survives.
func (b *ScheduleBook) RemoveEntries(ctx context.Context, done []model.ScheduleEntry) error {
	if len(done) == 0 {
		return nil
	}
	entries, err := b.Entries(ctx)
	if err != nil {
		return err
	}
	remove := make(map[string]time.Time, len(done))
	for _, e := range done {
		remove[e.Key()] = e.Expires
	}
	kept := entries[:0]
	for _, e := range entries {
		if expires, ok := remove[e.Key()]; ok && expires.Equal(e.Expires) {
			continue
		}
		kept = append(kept, e)
	}
	return b.save(ctx, kept)
}

func (b *ScheduleBook) save(ctx context.Context, entries []model.ScheduleEntry) error {
	return saveList(ctx, b.store, b.key, entries)
}

// NewScheduleBook creates a schedule book persisted in store
func NewScheduleBook(store port.PropertyStore) *ScheduleBook {
	return &ScheduleBook{
		store: store,
		key:   constants.PropertyExpirySchedule,
	}
}

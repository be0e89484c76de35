// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"slices"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// MockActionSpecReader serves fixed action spec rows
type MockActionSpecReader struct {
	Records []model.ActionSpecRecord
	Err     error
}

// ActionSpecRecords implements port.ActionSpecReader
func (r *MockActionSpecReader) ActionSpecRecords(ctx context.Context) ([]model.ActionSpecRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return slices.Clone(r.Records), nil
}

// DefaultActionSpecRecords is a complete, valid set of lifecycle templates
func DefaultActionSpecRecords() []model.ActionSpecRecord {
	return []model.ActionSpecRecord{
		{Type: "Migrate", Subject: "Your club account is ready, {GivenName}", Body: "<p>Sign in as {PrimaryEmail}. Membership runs until {Expires}.</p>", Groups: "members@club.org"},
		{Type: "Join", Subject: "Welcome to the club, {GivenName}", Body: "<p>Your account is {PrimaryEmail}. Membership runs until {Expires}.</p>", Groups: "members@club.org,announce@club.org"},
		{Type: "Renew", Subject: "Thanks for renewing, {GivenName}", Body: "<p>Your membership now runs until {Expires}.</p>", Groups: "members@club.org"},
		{Type: "Expiry1", Subject: "Membership expires in a week", Body: "<p>Renew before {Expires}.</p>", Offset: "-7"},
		{Type: "Expiry2", Subject: "Membership expires tomorrow", Body: "<p>Renew before {Expires}.</p>", Offset: "-1"},
		{Type: "Expiry3", Subject: "Membership expired", Body: "<p>Your membership expired on {Expires}.</p>", Offset: "0", Groups: "announce@club.org"},
		{Type: "Expiry4", Subject: "Account removed", Body: "<p>{PrimaryEmail} has been removed.</p>", Offset: "30", Groups: "members@club.org"},
	}
}

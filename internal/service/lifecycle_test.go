// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

const testOperator = "ops@club.org"

// lifecycleFixture wires both processors to in-memory backends
type lifecycleFixture struct {
	clock        *fakeClock
	directory    *mock.MockDirectory
	groups       *mock.MockGroups
	sender       *mock.MockEmailSender
	publisher    *mock.MockMessagePublisher
	store        *mock.MockPropertyStore
	transactions *mock.MockTransactionStore
	specReader   *mock.MockActionSpecReader
	schedule     *ScheduleBook
	queue        *RetryableActionQueue
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	clock := newFakeClock()
	store := mock.NewMockPropertyStore()
	return &lifecycleFixture{
		clock:        clock,
		directory:    mock.NewMockDirectory(),
		groups:       mock.NewMockGroups(),
		sender:       mock.NewMockEmailSender(),
		publisher:    mock.NewMockMessagePublisher(),
		store:        store,
		transactions: mock.NewMockTransactionStore(clock.Now),
		specReader:   &mock.MockActionSpecReader{Records: mock.DefaultActionSpecRecords()},
		schedule:     NewScheduleBook(store),
		queue: NewRetryableActionQueue(store,
			WithQueueClock(clock.Now),
			WithQueueMaxAttempts(3),
			WithQueueBackoff(func(int) time.Duration { return time.Hour }),
		),
	}
}

func (f *lifecycleFixture) options() []LifecycleOption {
	notifier := NewNotifier(f.publisher, f.sender, testOperator)
	return []LifecycleOption{
		WithDirectory(f.directory),
		WithGroupMembership(f.groups),
		WithEmailSender(f.sender),
		WithActionSpecs(NewActionSpecProvider(f.specReader, notifier)),
		WithScheduleBook(f.schedule),
		WithExpiryQueue(f.queue),
		WithTransactionStore(f.transactions),
		WithNotifier(notifier),
		WithClock(f.clock.Now),
		WithLifecycleConfig(LifecycleConfig{
			ClubDomain:     "club.org",
			OrgUnitPath:    "/members",
			MaxGenerations: 3,
			Retry: utils.RetryOnErrorOptions{
				Delay:       time.Millisecond,
				MaxAttempts: 3,
				Mode:        utils.RetryModeLoop,
			},
			PollAttempts: 2,
			PollDelay:    time.Millisecond,
		}),
	}
}

func (f *lifecycleFixture) membership() MembershipProcessor {
	return NewMembershipProcessor(f.options()...)
}

func (f *lifecycleFixture) expiry() ExpiryProcessor {
	return NewExpiryProcessor(f.options()...)
}

// sentTo returns the messages whose recipient list is exactly to
func (f *lifecycleFixture) sentTo(to string) []model.EmailMessage {
	var out []model.EmailMessage
	for _, m := range f.sender.Sent() {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

func seededMember(primary, contact string, expires time.Time) *model.Member {
	return &model.Member{
		PrimaryEmail:  primary,
		GivenName:     "Ann",
		FamilyName:    "Lee",
		ContactEmails: []string{contact},
		OrgUnitPath:   "/members",
		JoinDate:      expires.AddDate(-1, 0, 0),
		Expires:       expires,
	}
}

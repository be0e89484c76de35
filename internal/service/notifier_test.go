// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func TestNotifier_Alert(t *testing.T) {
	testCases := []struct {
		name        string
		operator    string
		problems    []string
		sendErr     error
		expectErr   bool
		expectSends int
	}{
		{
			name:        "consolidated email",
			operator:    testOperator,
			problems:    []string{"row 2: bad <email>", "row 5: missing offset"},
			expectSends: 1,
		},
		{
			name:     "nothing to report",
			operator: testOperator,
		},
		{
			name:     "no operator configured",
			problems: []string{"row 1: bad"},
		},
		{
			name:      "send failure is returned",
			operator:  testOperator,
			problems:  []string{"row 1: bad"},
			sendErr:   errs.NewServiceUnavailable("relay down"),
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := mock.NewMockEmailSender()
			if tc.sendErr != nil {
				sender.FailNext(mock.OpSendEmail, tc.sendErr)
			}
			notifier := NewNotifier(nil, sender, tc.operator)

			err := notifier.Alert(context.Background(), "Problems", tc.problems)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			sent := sender.Sent()
			require.Len(t, sent, tc.expectSends)
			if tc.expectSends > 0 {
				assert.Equal(t, testOperator, sent[0].To)
				assert.Equal(t, "Problems", sent[0].Subject)
				assert.Contains(t, sent[0].HTMLBody, "<li>row 2: bad &lt;email&gt;</li>")
				assert.Contains(t, sent[0].HTMLBody, "<li>row 5: missing offset</li>")
			}
		})
	}
}

func TestNotifier_EventPublishes(t *testing.T) {
	publisher := mock.NewMockMessagePublisher()
	notifier := NewNotifier(publisher, nil, "")

	notifier.Event(context.Background(), model.LifecycleEvent{
		Kind:   model.EventFired,
		Action: model.ActionExpiry1,
		Member: "ann.lee@club.org",
	})

	published := publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, constants.LifecycleEventSubject, published[0].Subject)
	event, ok := published[0].Message.(model.LifecycleEvent)
	require.True(t, ok)
	assert.Equal(t, model.EventFired, event.Kind)
	assert.False(t, event.OccurredAt.IsZero())
}

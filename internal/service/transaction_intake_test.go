// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func TestTransactionIntake_HandleMessage(t *testing.T) {
	record := func(t *testing.T, fields map[string]string) []byte {
		t.Helper()
		data, err := json.Marshal(fields)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name        string
		data        func(t *testing.T) []byte
		wantErr     bool
		wantStored  int
		wantTrigger bool
	}{
		{
			name: "paid submission is recorded and starts polling",
			data: func(t *testing.T) []byte {
				return record(t, map[string]string{
					" Transaction ID ": "tx-9",
					"email":            "ada@example.com",
					"First":            "Ada",
					"Last":             "Lovelace",
					"Payable Status":   "Paid",
					"Payment":          "2 years",
				})
			},
			wantStored:  1,
			wantTrigger: true,
		},
		{
			name: "unpaid submission is still recorded",
			data: func(t *testing.T) []byte {
				return record(t, map[string]string{"Email": "bob@example.com", "Payable Status": "pending"})
			},
			wantStored:  1,
			wantTrigger: true,
		},
		{
			name:    "malformed payload",
			data:    func(*testing.T) []byte { return []byte("not json") },
			wantErr: true,
		},
		{
			name: "record without email",
			data: func(t *testing.T) []byte {
				return record(t, map[string]string{"First": "Nobody"})
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := mock.NewMockTransactionStore(nil)
			scheduler := mock.NewMockTriggerScheduler()
			poller := NewPollingBackoffController(mock.NewMockPropertyStore(), scheduler,
				constants.HandlerCheckPaymentStatus, func(context.Context) (bool, error) { return true, nil })
			intake := NewTransactionIntake(store, poller)

			err := intake.HandleMessage(ctx, &nats.Msg{
				Subject: constants.TransactionSubmittedSubject,
				Data:    tc.data(t),
			})
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsValidation(err))
			} else {
				require.NoError(t, err)
			}

			assert.Len(t, store.All(), tc.wantStored)
			triggers, err := scheduler.List(ctx)
			require.NoError(t, err)
			if tc.wantTrigger {
				require.Len(t, triggers, 1)
				assert.Equal(t, model.PollTier1, triggers[0].Interval)
			} else {
				assert.Empty(t, triggers)
			}
		})
	}
}

func TestTransactionIntake_RestartsPolling(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockTransactionStore(nil)
	scheduler := mock.NewMockTriggerScheduler()
	properties := mock.NewMockPropertyStore()
	poller := NewPollingBackoffController(properties, scheduler,
		constants.HandlerCheckPaymentStatus, func(context.Context) (bool, error) { return true, nil })
	intake := NewTransactionIntake(store, poller)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		data, err := json.Marshal(map[string]string{"Email": email, "Payable Status": "paid"})
		require.NoError(t, err)
		require.NoError(t, intake.HandleMessage(ctx, &nats.Msg{Data: data}))
	}

	triggers, err := scheduler.List(ctx)
	require.NoError(t, err)
	assert.Len(t, triggers, 1, "a restart replaces the previous trigger")

	state, err := poller.State(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, triggers[0].ID, state.TriggerID)
}

func TestTransactionIntake_RedeliveryWithoutIDIsRecordedOnce(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockTransactionStore(nil)
	poller := NewPollingBackoffController(mock.NewMockPropertyStore(), mock.NewMockTriggerScheduler(),
		constants.HandlerCheckPaymentStatus, func(context.Context) (bool, error) { return true, nil })
	intake := NewTransactionIntake(store, poller)

	first := []byte(`{"Email":"ann@home.net","Payable Status":"paid","Payment":"1 year","Timestamp":"2025-03-10T09:00:00Z"}`)
	reordered := []byte(`{"Timestamp":"2025-03-10T09:00:00Z"," email ":"ann@home.net","Payment":"1 year","Payable Status":"paid"}`)
	other := []byte(`{"Email":"ann@home.net","Payable Status":"paid","Payment":"1 year","Timestamp":"2026-03-10T09:00:00Z"}`)

	for _, data := range [][]byte{first, first, reordered, other} {
		require.NoError(t, intake.HandleMessage(ctx, &nats.Msg{Data: data}))
	}

	stored := store.All()
	require.Len(t, stored, 2, "a redelivered record is not appended twice")
	assert.NotEqual(t, stored[0].ID, stored[1].ID)
	assert.Equal(t, model.RecordID(map[string]string{
		"Email": "ann@home.net", "Payable Status": "paid", "Payment": "1 year", "Timestamp": "2025-03-10T09:00:00Z",
	}), stored[0].ID)
}

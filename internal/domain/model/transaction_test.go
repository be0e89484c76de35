// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		payment  string
		expected int
	}{
		{"1 year", 1},
		{"2 years", 2},
		{"  3 years", 3},
		{"10", 10},
		{"", 1},
		{"one year", 1},
		{"year 2", 1},
		{"0 years", 1},
	}

	for _, tt := range tests {
		t.Run(tt.payment, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePeriod(tt.payment))
		})
	}
}

func TestTransaction_IsPaid(t *testing.T) {
	assert.True(t, Transaction{PaymentStatus: "paid"}.IsPaid())
	assert.True(t, Transaction{PaymentStatus: "PAID"}.IsPaid())
	assert.True(t, Transaction{PaymentStatus: " Paid "}.IsPaid())
	assert.False(t, Transaction{PaymentStatus: "pending"}.IsPaid())
	assert.False(t, Transaction{}.IsPaid())
}

func TestTransactionFromRecord(t *testing.T) {
	record := map[string]string{
		"payable status": "PAID",
		" Email ":        "a@x.com",
		"FIRST":          "A",
		"Last":           "B",
		"Payment":        "2 years",
		"Timestamp":      "2024-05-01T10:00:00Z",
		"Transaction ID": "tx-1",
		"Unrelated":      "ignored",
	}

	tx := TransactionFromRecord(record)

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "a@x.com", tx.Email)
	assert.Equal(t, "A", tx.FirstName)
	assert.Equal(t, "B", tx.LastName)
	assert.True(t, tx.IsPaid())
	assert.Equal(t, 2, tx.Period())
	assert.True(t, tx.Timestamp.Equal(time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, tx.IsProcessed())

	record["Processed"] = "2024-05-01T10:05:00Z"
	tx = TransactionFromRecord(record)
	require.NotNil(t, tx.ProcessedAt)
	assert.True(t, tx.IsProcessed())
}

func TestRecordID(t *testing.T) {
	base := map[string]string{"Email": "a@x.com", "Payable Status": "paid"}

	assert.Equal(t, RecordID(base), RecordID(map[string]string{" email": "a@x.com ", "PAYABLE STATUS": "paid"}),
		"headers and values are normalized")
	assert.NotEqual(t, RecordID(base), RecordID(map[string]string{"Email": "a@x.com", "Payable Status": "pending"}))
	assert.Len(t, RecordID(base), 36)
}

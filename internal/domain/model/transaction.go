// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// PaymentStatusPaid is compared case-insensitively against Transaction.PaymentStatus
const PaymentStatusPaid = "paid"

// Record headers of a transaction row. Lookups ignore case and surrounding spaces.
const (
	HeaderTransactionID = "Transaction ID"
	HeaderTimestamp     = "Timestamp"
	HeaderEmail         = "Email"
	HeaderFirstName     = "First"
	HeaderLastName      = "Last"
	HeaderPaymentStatus = "Payable Status"
	HeaderPayment       = "Payment"
	HeaderProcessed     = "Processed"
)

var leadingInteger = regexp.MustCompile(`^\s*(\d+)`)

// Transaction is a recorded payment event
type Transaction struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PaymentStatus string     `json:"payment_status"`
	Payment       string     `json:"payment"` // e.g. "2 years"
	Timestamp     time.Time  `json:"timestamp"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// IsPaid reports whether the payment status is "paid" in any case
func (t Transaction) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(t.PaymentStatus), PaymentStatusPaid)
}

// IsProcessed reports whether the transaction was already applied
func (t Transaction) IsProcessed() bool {
	return t.ProcessedAt != nil && !t.ProcessedAt.IsZero()
}

// Period is the leading integer of the payment text, 1 when absent or below 1
func (t Transaction) Period() int {
	return ParsePeriod(t.Payment)
}

// ParsePeriod extracts the leading integer token of a payment description
func ParsePeriod(payment string) int {
	m := leadingInteger.FindStringSubmatch(payment)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// TransactionFromRecord builds a Transaction from a header-addressed row
func TransactionFromRecord(record map[string]string) Transaction {
	fields := make(map[string]string, len(record))
	for k, v := range record {
		fields[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	get := func(header string) string {
		return fields[strings.ToLower(header)]
	}

	tx := Transaction{
		ID:            get(HeaderTransactionID),
		Email:         get(HeaderEmail),
		FirstName:     get(HeaderFirstName),
		LastName:      get(HeaderLastName),
		PaymentStatus: get(HeaderPaymentStatus),
		Payment:       get(HeaderPayment),
	}
	if ts, err := utils.ValidateRFC3339(get(HeaderTimestamp)); err == nil {
		tx.Timestamp = ts
	}
	if processed, err := utils.ValidateRFC3339(get(HeaderProcessed)); err == nil {
		tx.ProcessedAt = &processed
	}
	return tx
}

// recordNamespace scopes the ids derived from submitted records
var recordNamespace = uuid.MustParse("2f1c6a4e-9b0d-4c55-8a7e-6d3f1b2a9c10")

// RecordID derives a stable transaction id from the content of record, so a
// redelivered submission without a Transaction ID maps to the same row.
func RecordID(record map[string]string) string {
	fields := make(map[string]string, len(record))
	for k, v := range record {
		fields[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	// map keys are marshalled in sorted order
	data, _ := json.Marshal(fields)
	return uuid.NewSHA1(recordNamespace, data).String()
}

// PaidMemberAction is the membership intent derived from one paid transaction
type PaidMemberAction struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Email         string `json:"email"`
	Period        int    `json:"period"`
	First         string `json:"first"`
	Last          string `json:"last"`
}

// Renewal pairs a paid action with the existing member it extends
type Renewal struct {
	Action PaidMemberAction
	Member *Member
}

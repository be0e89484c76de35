// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redaction masks personal data before it reaches the logs.
package redaction

import "strings"

// RedactEmail keeps the first character of the local part and the domain,
// e.g. "alice@example.com" becomes "a***@example.com". Values that are not
// an address are fully masked.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***"
	}

	return email[:1] + "***" + email[at:]
}

// RedactEmails applies RedactEmail to each address
func RedactEmails(emails []string) []string {
	if emails == nil {
		return nil
	}
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = RedactEmail(e)
	}
	return out
}

// RedactRecipients redacts each address of a comma separated recipient list
func RedactRecipients(to string) string {
	if strings.TrimSpace(to) == "" {
		return ""
	}
	return strings.Join(RedactEmails(strings.Split(to, ",")), ",")
}

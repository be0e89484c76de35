// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package groupsio

// MemberObject represents a Groups.io member subscription
type MemberObject struct {
	ID        uint64 `json:"id"`
	GroupID   uint64 `json:"group_id"`
	GroupName string `json:"group_name,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"full_name,omitempty"`
	Status    string `json:"status"` // normal, pending, bouncing, etc.
}

// LoginObject represents the Groups.io login response
type LoginObject struct {
	Token  string `json:"token"`
	UserID uint64 `json:"user_id,omitempty"`
}

// ErrorObject represents a Groups.io API error response
type ErrorObject struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	ExtraInfo string `json:"extra_info,omitempty"`
}

// DirectAddError is one rejected address of a direct add
type DirectAddError struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// DirectAddResultsObject is the direct add response
type DirectAddResultsObject struct {
	TotalEmails  int              `json:"total_emails"`
	AddedMembers []MemberObject   `json:"added_members"`
	Errors       []DirectAddError `json:"errors"`
}

// DirectAddOptions are the direct add form fields
type DirectAddOptions struct {
	GroupName string `url:"group_name"`
	Emails    string `url:"emails"` // newline or comma separated
}

// MemberLookupOptions finds one subscription of a group
type MemberLookupOptions struct {
	GroupName string `url:"group_name"`
	Email     string `url:"email"`
}

// RemoveMemberOptions unsubscribes a member by subscription id
type RemoveMemberOptions struct {
	GroupName string `url:"group_name"`
	MemberID  uint64 `url:"sub_id"`
}

// LoginOptions are the login query fields
type LoginOptions struct {
	Email    string `url:"email"`
	Password string `url:"password"`
	Token    bool   `url:"token,int"`
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "regexp"

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// EmailMessage is one outbound message
type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// ExpandPlaceholders replaces {Name} with values[Name]. Unknown names are left as written.
func ExpandPlaceholders(template string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

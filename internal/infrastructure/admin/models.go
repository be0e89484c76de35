// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package admin

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// membershipSchema is the custom schema carrying the lifecycle fields
const membershipSchema = "Club_Membership"

type userResource struct {
	PrimaryEmail              string                      `json:"primaryEmail,omitempty"`
	Password                  string                      `json:"password,omitempty"`
	ChangePasswordAtNextLogin bool                        `json:"changePasswordAtNextLogin,omitempty"`
	Name                      *userName                   `json:"name,omitempty"`
	Emails                    []userEmail                 `json:"emails,omitempty"`
	Phones                    []userPhone                 `json:"phones,omitempty"`
	OrgUnitPath               string                      `json:"orgUnitPath,omitempty"`
	CustomSchemas             map[string]membershipFields `json:"customSchemas,omitempty"`
}

type userName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type userEmail struct {
	Address string `json:"address"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type userPhone struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

type membershipFields struct {
	JoinDate   string `json:"Join_Date,omitempty"`
	Expires    string `json:"Expires,omitempty"`
	Generation *int   `json:"Generation,omitempty"`
}

type usersPage struct {
	Users         []userResource `json:"users"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type listOptions struct {
	Customer   string `url:"customer"`
	MaxResults int    `url:"maxResults"`
	PageToken  string `url:"pageToken,omitempty"`
	Query      string `url:"query,omitempty"`
	Projection string `url:"projection"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func toResource(m *model.Member) userResource {
	generation := m.Generation
	res := userResource{
		PrimaryEmail: m.PrimaryEmail,
		Name:         &userName{GivenName: m.GivenName, FamilyName: m.FamilyName},
		OrgUnitPath:  m.OrgUnitPath,
		Emails:       contactEmails(m.ContactEmails),
		Phones:       phones(m.Phones),
		CustomSchemas: map[string]membershipFields{membershipSchema: {
			JoinDate:   utils.FormatDate(m.JoinDate),
			Expires:    utils.FormatDate(m.Expires),
			Generation: &generation,
		}},
	}
	return res
}

// patchResource carries only the fields the patch sets
func patchResource(p model.MemberPatch) userResource {
	var res userResource
	if p.GivenName != nil || p.FamilyName != nil {
		res.Name = &userName{}
		if p.GivenName != nil {
			res.Name.GivenName = *p.GivenName
		}
		if p.FamilyName != nil {
			res.Name.FamilyName = *p.FamilyName
		}
	}
	if p.ContactEmails != nil {
		res.Emails = contactEmails(p.ContactEmails)
	}
	if p.Phones != nil {
		res.Phones = phones(p.Phones)
	}
	if p.OrgUnitPath != nil {
		res.OrgUnitPath = *p.OrgUnitPath
	}
	if p.Expires != nil || p.Generation != nil {
		fields := membershipFields{Generation: p.Generation}
		if p.Expires != nil {
			fields.Expires = utils.FormatDate(*p.Expires)
		}
		res.CustomSchemas = map[string]membershipFields{membershipSchema: fields}
	}
	return res
}

func (r userResource) toMember() *model.Member {
	src := model.Member{
		PrimaryEmail: r.PrimaryEmail,
		OrgUnitPath:  r.OrgUnitPath,
	}
	if r.Name != nil {
		src.GivenName = r.Name.GivenName
		src.FamilyName = r.Name.FamilyName
	}
	for _, e := range r.Emails {
		if e.Primary || model.NormalizeEmail(e.Address) == model.NormalizeEmail(r.PrimaryEmail) {
			continue
		}
		src.ContactEmails = append(src.ContactEmails, model.NormalizeEmail(e.Address))
	}
	for _, p := range r.Phones {
		src.Phones = append(src.Phones, p.Value)
	}
	if fields, ok := r.CustomSchemas[membershipSchema]; ok {
		src.JoinDate = parseDate(fields.JoinDate)
		src.Expires = parseDate(fields.Expires)
		if fields.Generation != nil {
			src.Generation = *fields.Generation
		}
	}
	return model.NewMember(src)
}

// parseDate treats a missing or malformed value as unset
func parseDate(value string) time.Time {
	t, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func contactEmails(emails []string) []userEmail {
	out := make([]userEmail, 0, len(emails))
	for _, e := range emails {
		out = append(out, userEmail{Address: model.NormalizeEmail(e), Type: "home"})
	}
	return out
}

func phones(values []string) []userPhone {
	out := make([]userPhone, 0, len(values))
	for _, v := range values {
		out = append(out, userPhone{Value: v, Type: "mobile"})
	}
	return out
}

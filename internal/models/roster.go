// Package models - Client roster document.
// The roster seeds the client registry at startup. It is read from a file
// (XML or YAML) or from one of the database-backed roster sources, and is
// never written back: usage counters live only in process memory.
package models

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// Roster is the decoded client roster.
//
// XML form:
//
//	<clients>
//	  <authentication nameCookie="xjsf_user" passwordCookie="xjsf_pass"/>
//	  <client name="alice" password="p" hourLimit="10"/>
//	  <client minLimit="30"/>
//	</clients>
//
// A client entry without a name declares the default client, whose limits
// also serve as the template for clients created on first sight of an origin.
type Roster struct {
	XMLName        xml.Name       `xml:"clients" yaml:"-" json:"-" bson:"-"`
	Authentication Authentication `xml:"authentication" yaml:"authentication" json:"authentication" bson:"authentication"`
	Clients        []RosterEntry  `xml:"client" yaml:"clients" json:"clients" bson:"clients"`
}

// Authentication names the cookie pair carrying a client's credentials.
// Both empty disables credential-based identification.
type Authentication struct {
	NameCookie     string `xml:"nameCookie,attr" yaml:"name_cookie" json:"name_cookie" bson:"name_cookie"`
	PasswordCookie string `xml:"passwordCookie,attr" yaml:"password_cookie" json:"password_cookie" bson:"password_cookie"`
}

// RosterEntry declares one client. Nil or negative limits mean unlimited.
type RosterEntry struct {
	Name        string  `xml:"name,attr,omitempty" yaml:"name,omitempty" json:"name,omitempty" bson:"name,omitempty"`
	Password    *string `xml:"password,attr,omitempty" yaml:"password,omitempty" json:"password,omitempty" bson:"password,omitempty"`
	MinuteLimit *int    `xml:"minLimit,attr,omitempty" yaml:"min_limit,omitempty" json:"min_limit,omitempty" bson:"min_limit,omitempty"`
	HourLimit   *int    `xml:"hourLimit,attr,omitempty" yaml:"hour_limit,omitempty" json:"hour_limit,omitempty" bson:"hour_limit,omitempty"`
	DayLimit    *int    `xml:"dayLimit,attr,omitempty" yaml:"day_limit,omitempty" json:"day_limit,omitempty" bson:"day_limit,omitempty"`
}

// IsDefault reports whether the entry declares the default client.
func (e RosterEntry) IsDefault() bool {
	return e.Name == ""
}

// Default returns the nameless entry, if the roster declares one.
func (r *Roster) Default() (RosterEntry, bool) {
	for _, e := range r.Clients {
		if e.IsDefault() {
			return e, true
		}
	}
	return RosterEntry{}, false
}

func (r *Roster) Validate() error {
	if (r.Authentication.NameCookie == "") != (r.Authentication.PasswordCookie == "") {
		return errors.New("nameCookie and passwordCookie must be declared together")
	}

	seen := make(map[string]bool, len(r.Clients))
	for _, e := range r.Clients {
		if seen[e.Name] {
			if e.IsDefault() {
				return errors.New("more than one default client declared")
			}
			return fmt.Errorf("duplicate client: %s", e.Name)
		}
		seen[e.Name] = true
	}

	return nil
}

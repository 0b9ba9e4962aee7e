package contacts

import (
	"sort"
	"time"
)

// Canonical field names. Source columns map onto these; anything else is
// carried as a custom field.
const (
	FieldPhone     = "phone"
	FieldName      = "name"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldLocation  = "location"
)

// Record is a single normalized contact. Phone is the identity key and is
// always present and canonical on records that survive ingestion.
type Record struct {
	Phone     string            `json:"phone"`
	Name      string            `json:"name,omitempty"`
	FirstName string            `json:"first_name,omitempty"`
	LastName  string            `json:"last_name,omitempty"`
	Email     string            `json:"email,omitempty"`
	Location  string            `json:"location,omitempty"`
	Custom    map[string]string `json:"custom,omitempty"`
}

// FieldValue resolves a canonical or custom field by name. Empty values
// resolve false so placeholders stay visible instead of vanishing.
func (r Record) FieldValue(name string) (string, bool) {
	var v string
	switch name {
	case FieldPhone:
		v = r.Phone
	case FieldName:
		v = r.Name
	case FieldFirstName:
		v = r.FirstName
	case FieldLastName:
		v = r.LastName
	case FieldEmail:
		v = r.Email
	case FieldLocation:
		v = r.Location
	default:
		v = r.Custom[name]
	}
	return v, v != ""
}

// Fields lists every field name the record can actually render: non-empty
// canonical fields first, then custom keys in sorted order.
func (r Record) Fields() []string {
	var out []string
	for _, f := range []string{FieldPhone, FieldName, FieldFirstName, FieldLastName, FieldEmail, FieldLocation} {
		if v, ok := r.FieldValue(f); ok && v != "" {
			out = append(out, f)
		}
	}
	if len(r.Custom) == 0 {
		return out
	}
	keys := make([]string, 0, len(r.Custom))
	for k, v := range r.Custom {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return append(out, keys...)
}

func (r Record) clone() Record {
	cp := r
	if r.Custom != nil {
		cp.Custom = make(map[string]string, len(r.Custom))
		for k, v := range r.Custom {
			cp.Custom[k] = v
		}
	}
	return cp
}

// List is a named, timestamped snapshot of records. Lists are immutable once
// saved; re-saving under the same name appends a new snapshot.
type List struct {
	Name     string    `json:"name"`
	SavedAt  time.Time `json:"saved_at"`
	Contacts []Record  `json:"contacts"`
}

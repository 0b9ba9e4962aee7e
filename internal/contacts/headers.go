package contacts

import (
	"strings"
)

// HeaderMapping maps canonical field name -> original source column name.
// Only the phone mapping is mandatory for tabular ingestion.
type HeaderMapping map[string]string

// detectOrder fixes the scan order so the more specific name fields claim
// their columns before the bare "name" patterns can.
var detectOrder = []string{FieldPhone, FieldFirstName, FieldLastName, FieldName, FieldEmail, FieldLocation}

// headerPatterns are matched as case/punctuation-insensitive substrings
// against folded column names.
var headerPatterns = map[string][]string{
	FieldPhone:     {"phone", "mobile", "msisdn", "whatsapp", "tel", "contactno", "number"},
	FieldFirstName: {"firstname", "givenname", "fname"},
	FieldLastName:  {"lastname", "surname", "familyname", "lname"},
	FieldName:      {"fullname", "name", "customer", "client"},
	FieldEmail:     {"email", "mail"},
	FieldLocation:  {"location", "city", "town", "district", "region", "address"},
}

// DetectHeaders guesses a HeaderMapping from source column names.
// First matching column wins per field; each column is claimed at most once.
func DetectHeaders(columns []string) HeaderMapping {
	mapping := HeaderMapping{}
	claimed := make(map[string]bool, len(columns))

	for _, field := range detectOrder {
		for _, col := range columns {
			if claimed[col] {
				continue
			}
			folded := foldHeader(col)
			if folded == "" {
				continue
			}
			for _, pat := range headerPatterns[field] {
				if strings.Contains(folded, pat) {
					mapping[field] = col
					claimed[col] = true
					break
				}
			}
			if _, done := mapping[field]; done {
				break
			}
		}
	}
	return mapping
}

// foldHeader lowercases a column name and strips everything that is not a
// letter or digit, so "First Name", "first_name" and "FIRST-NAME" compare equal.
func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeKey turns an arbitrary source column name into a custom field key:
// lowercased, whitespace runs collapsed to a single underscore.
func sanitizeKey(col string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(col))), "_")
}

func (r *Record) setField(field, value string) {
	switch field {
	case FieldName:
		r.Name = value
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	case FieldEmail:
		r.Email = value
	case FieldLocation:
		r.Location = value
	}
}

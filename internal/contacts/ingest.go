// Package contacts ingests raw and tabular contact input into deduplicated,
// validated records ready for templating and dispatch.
package contacts

import (
	"errors"
	"strings"

	"dripsend/internal/phone"
)

// ErrPhoneUnmapped is returned when tabular rows are supplied without a
// column mapped to the phone field.
var ErrPhoneUnmapped = errors.New("contacts: no column mapped to phone")

// fallbackSalutation fills first_name when a record carries no name at all,
// so greetings like "Hi {first_name}" always render something sensible.
const fallbackSalutation = "there"

// Invalid is a record that failed validation, with the reason it failed.
type Invalid struct {
	Record Record `json:"record"`
	Reason string `json:"reason"`
}

// Merge builds records from raw phone strings and/or tabular rows.
//
// Raw phones become records with empty optional fields. Tabular rows populate
// canonical fields through mapping; unmapped source columns are carried as
// custom fields under a sanitized key. Rows whose phone is missing or fails
// normalization are dropped.
func Merge(rawPhones []string, rows []map[string]string, mapping HeaderMapping, defaultCC string) ([]Record, error) {
	out := make([]Record, 0, len(rawPhones)+len(rows))

	for _, raw := range rawPhones {
		p, err := phone.Normalize(raw, defaultCC)
		if err != nil {
			continue
		}
		out = append(out, Record{Phone: p})
	}

	if len(rows) > 0 {
		phoneCol, ok := mapping[FieldPhone]
		if !ok || strings.TrimSpace(phoneCol) == "" {
			return nil, ErrPhoneUnmapped
		}
		mapped := make(map[string]string, len(mapping)) // column -> field
		for field, col := range mapping {
			mapped[col] = field
		}

		for _, row := range rows {
			p, err := phone.Normalize(row[phoneCol], defaultCC)
			if err != nil {
				continue
			}
			rec := Record{Phone: p}
			for field, col := range mapping {
				if field == FieldPhone {
					continue
				}
				rec.setField(field, strings.TrimSpace(row[col]))
			}
			for col, val := range row {
				if _, claimed := mapped[col]; claimed {
					continue
				}
				key := sanitizeKey(col)
				if key == "" {
					continue
				}
				if rec.Custom == nil {
					rec.Custom = map[string]string{}
				}
				rec.Custom[key] = strings.TrimSpace(val)
			}
			out = append(out, rec)
		}
	}

	return out, nil
}

// Dedupe drops every record whose phone appeared earlier in the sequence.
// First occurrence wins; relative order is preserved.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.Phone]; dup {
			continue
		}
		seen[r.Phone] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Validate partitions records into valid and invalid. The partition is
// exhaustive and disjoint; invalid records carry an explicit reason.
func Validate(records []Record) (valid []Record, invalid []Invalid) {
	valid = make([]Record, 0, len(records))
	for _, r := range records {
		switch {
		case strings.TrimSpace(r.Phone) == "":
			invalid = append(invalid, Invalid{Record: r, Reason: "missing phone"})
		case !phone.Valid(r.Phone):
			invalid = append(invalid, Invalid{Record: r, Reason: "invalid phone: " + r.Phone})
		default:
			valid = append(valid, r)
		}
	}
	return valid, invalid
}

// Finalize fills derivable name fields so every record has a renderable
// greeting: name from first/last, first/last by splitting name, and the
// generic salutation when nothing is known.
func Finalize(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		rec := r.clone()
		if rec.Name == "" {
			rec.Name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		}
		if rec.FirstName == "" && rec.Name != "" {
			first, rest, _ := strings.Cut(rec.Name, " ")
			rec.FirstName = first
			if rec.LastName == "" {
				rec.LastName = strings.TrimSpace(rest)
			}
		}
		if rec.FirstName == "" {
			rec.FirstName = fallbackSalutation
		}
		out = append(out, rec)
	}
	return out
}

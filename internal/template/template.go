// Package template renders message templates against contact records.
//
// Placeholders are contact field names wrapped in single or double braces;
// both styles carry the same meaning. An unresolved placeholder stays
// verbatim in the output so a bad template is visible, never silent.
package template

import (
	"errors"
	"strings"

	"dripsend/internal/contacts"
)

// ErrEmpty is returned when a template contains nothing to send.
var ErrEmpty = errors.New("template: empty template")

// PreviewMessage pairs a contact with its rendered message.
type PreviewMessage struct {
	Phone   string          `json:"phone"`
	Contact contacts.Record `json:"contact"`
	Message string          `json:"message"`
}

// token is one placeholder occurrence in the template source.
type token struct {
	start int    // byte offset of the opening brace
	end   int    // byte offset just past the closing brace(s)
	field string // trimmed field name
}

// scan finds all placeholder tokens left to right. Double braces are
// consumed as one token; malformed braces are left as literals.
func scan(tmpl string) []token {
	var toks []token
	for i := 0; i < len(tmpl); {
		if tmpl[i] != '{' {
			i++
			continue
		}
		double := i+1 < len(tmpl) && tmpl[i+1] == '{'
		open := 1
		if double {
			open = 2
		}
		closer := "}"
		if double {
			closer = "}}"
		}
		rel := strings.Index(tmpl[i+open:], closer)
		if rel < 0 {
			i += open
			continue
		}
		inner := tmpl[i+open : i+open+rel]
		field := strings.TrimSpace(inner)
		if field == "" || strings.ContainsAny(field, "{}") {
			i += open
			continue
		}
		toks = append(toks, token{start: i, end: i + open + rel + len(closer), field: field})
		i = toks[len(toks)-1].end
	}
	return toks
}

// Placeholders extracts the distinct field names referenced by tmpl,
// in first-appearance order.
func Placeholders(tmpl string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range scan(tmpl) {
		if _, dup := seen[tok.field]; dup {
			continue
		}
		seen[tok.field] = struct{}{}
		out = append(out, tok.field)
	}
	return out
}

// Validate checks that every placeholder exists in availableFields and
// returns the ones that do not.
func Validate(tmpl string, availableFields []string) (missing []string) {
	have := make(map[string]struct{}, len(availableFields))
	for _, f := range availableFields {
		have[f] = struct{}{}
	}
	for _, field := range Placeholders(tmpl) {
		if _, ok := have[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Render substitutes every placeholder occurrence with the contact's field
// value. Placeholders with no matching field are kept verbatim.
func Render(tmpl string, contact contacts.Record) string {
	toks := scan(tmpl)
	if len(toks) == 0 {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	prev := 0
	for _, tok := range toks {
		b.WriteString(tmpl[prev:tok.start])
		if v, ok := contact.FieldValue(tok.field); ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[tok.start:tok.end])
		}
		prev = tok.end
	}
	b.WriteString(tmpl[prev:])
	return b.String()
}

// Preview renders the first sampleSize contacts.
func Preview(tmpl string, records []contacts.Record, sampleSize int) []PreviewMessage {
	if sampleSize < 0 {
		sampleSize = 0
	}
	if sampleSize > len(records) {
		sampleSize = len(records)
	}
	return Batch(tmpl, records[:sampleSize])
}

// Batch renders every contact. This is the message set handed to dispatch.
func Batch(tmpl string, records []contacts.Record) []PreviewMessage {
	out := make([]PreviewMessage, 0, len(records))
	for _, r := range records {
		out = append(out, PreviewMessage{Phone: r.Phone, Contact: r, Message: Render(tmpl, r)})
	}
	return out
}

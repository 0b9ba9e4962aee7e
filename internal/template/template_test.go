package template

import (
	"reflect"
	"testing"

	"dripsend/internal/contacts"
)

func TestPlaceholders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tmpl string
		want []string
	}{
		{name: "single and double braces dedupe", tmpl: "Hi {name}, {{name}} again", want: []string{"name"}},
		{name: "first appearance order", tmpl: "{last_name} then {first_name} then {last_name}", want: []string{"last_name", "first_name"}},
		{name: "whitespace inside braces", tmpl: "Hi {{ first_name }}", want: []string{"first_name"}},
		{name: "no placeholders", tmpl: "plain text", want: nil},
		{name: "unclosed brace is literal", tmpl: "Hi {name", want: nil},
		{name: "empty braces are literal", tmpl: "Hi {} and {{ }}", want: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Placeholders(tt.tmpl); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Placeholders(%q) = %v, want %v", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	missing := Validate("Hi {first_name} from {company}", []string{"phone", "first_name"})
	if !reflect.DeepEqual(missing, []string{"company"}) {
		t.Fatalf("missing = %v, want [company]", missing)
	}
	if missing := Validate("Hi {first_name}", []string{"first_name"}); missing != nil {
		t.Fatalf("expected no missing fields, got %v", missing)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	amara := contacts.Record{Phone: "+256712345678", FirstName: "Amara", Custom: map[string]string{"company": "Acme"}}
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{name: "simple", tmpl: "Hi {first_name}", want: "Hi Amara"},
		{name: "double braces", tmpl: "Hi {{first_name}}", want: "Hi Amara"},
		{name: "missing field stays verbatim", tmpl: "Hi {missing}", want: "Hi {missing}"},
		{name: "custom field", tmpl: "{first_name} at {company}", want: "Amara at Acme"},
		{name: "repeat occurrences", tmpl: "{first_name} {first_name}", want: "Amara Amara"},
		{name: "mixed resolved and verbatim", tmpl: "{first_name} {nope} {phone}", want: "Amara {nope} +256712345678"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.tmpl, amara); got != tt.want {
				t.Fatalf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestPreviewAndBatch(t *testing.T) {
	t.Parallel()
	records := []contacts.Record{
		{Phone: "+256700000001", FirstName: "A"},
		{Phone: "+256700000002", FirstName: "B"},
		{Phone: "+256700000003", FirstName: "C"},
	}

	prev := Preview("Hi {first_name}", records, 2)
	if len(prev) != 2 {
		t.Fatalf("Preview returned %d messages, want 2", len(prev))
	}
	if prev[0].Message != "Hi A" || prev[1].Message != "Hi B" {
		t.Fatalf("unexpected preview messages: %+v", prev)
	}

	// Oversized sample clamps to the full set.
	if got := Preview("x", records, 10); len(got) != 3 {
		t.Fatalf("clamped preview returned %d messages, want 3", len(got))
	}

	batch := Batch("Hi {first_name}", records)
	if len(batch) != 3 {
		t.Fatalf("Batch returned %d messages, want 3", len(batch))
	}
	for i, pm := range batch {
		if pm.Phone != records[i].Phone {
			t.Fatalf("batch message %d phone = %q, want %q", i, pm.Phone, records[i].Phone)
		}
	}
}

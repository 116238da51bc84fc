package proxy

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
)

const profileDoc = `{
	"name": "Alice",
	"age": 42,
	"height": 1.68,
	"active": true,
	"nickname": null,
	"big": 12345678901234567890,
	"joined": "2024-03-01T10:00:00Z",
	"tags": ["admin", "dev"],
	"scores": [1, 2, 3],
	"address": {"city": "Paris", "zip": "75001"}
}`

func TestContentRoundTrip(t *testing.T) {
	p := newPerson(t, newFakeOps(nil), profileDoc)

	var original map[string]any
	dec := json.NewDecoder(strings.NewReader(profileDoc))
	dec.UseNumber()
	if err := dec.Decode(&original); err != nil {
		t.Fatalf("decode original: %v", err)
	}

	for key, want := range original {
		got, err := Get[any](context.Background(), p.Proxy, key)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", key, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: expected %#v, got %#v", key, want, got)
		}
	}
}

func TestContentConversions(t *testing.T) {
	p := newPerson(t, newFakeOps(nil), profileDoc).Proxy

	if v, err := Property[int](p, "age"); err != nil || v != 42 {
		t.Errorf("age as int: expected 42, got %v (%v)", v, err)
	}
	if v, err := Property[uint8](p, "age"); err != nil || v != 42 {
		t.Errorf("age as uint8: expected 42, got %v (%v)", v, err)
	}
	if v, err := Property[float64](p, "age"); err != nil || v != 42 {
		t.Errorf("age as float64: expected 42, got %v (%v)", v, err)
	}
	if v, err := Property[float32](p, "height"); err != nil || v != float32(1.68) {
		t.Errorf("height as float32: expected 1.68, got %v (%v)", v, err)
	}
	if v, err := Property[uint64](p, "big"); err != nil || v != 12345678901234567890 {
		t.Errorf("big as uint64: expected exact value, got %v (%v)", v, err)
	}
	if v, err := Property[hal.Number](p, "big"); err != nil || v != "12345678901234567890" {
		t.Errorf("big as Number: expected textual value, got %v (%v)", v, err)
	}
	if v, err := Property[bool](p, "active"); err != nil || !v {
		t.Errorf("active: expected true, got %v (%v)", v, err)
	}
	if v, err := Property[*string](p, "nickname"); err != nil || v != nil {
		t.Errorf("nickname: expected nil pointer, got %v (%v)", v, err)
	}
	if v, err := Property[*int](p, "age"); err != nil || v == nil || *v != 42 {
		t.Errorf("age as *int: expected 42, got %v (%v)", v, err)
	}
	if v, err := Property[[]string](p, "tags"); err != nil || !reflect.DeepEqual(v, []string{"admin", "dev"}) {
		t.Errorf("tags: unexpected %v (%v)", v, err)
	}
	if v, err := Property[[]int](p, "scores"); err != nil || !reflect.DeepEqual(v, []int{1, 2, 3}) {
		t.Errorf("scores: unexpected %v (%v)", v, err)
	}

	joined, err := Property[time.Time](p, "joined")
	if err != nil {
		t.Fatalf("joined: unexpected error: %v", err)
	}
	if !joined.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("joined: unexpected %v", joined)
	}

	type address struct {
		City string `json:"city"`
		Zip  string `json:"zip"`
	}
	addr, err := Property[address](p, "address")
	if err != nil {
		t.Fatalf("address: unexpected error: %v", err)
	}
	if addr.City != "Paris" || addr.Zip != "75001" {
		t.Errorf("address: unexpected %+v", addr)
	}

	fields, err := Property[map[string]string](p, "address")
	if err != nil || fields["city"] != "Paris" {
		t.Errorf("address as map: unexpected %v (%v)", fields, err)
	}

	nested, err := Property[*Proxy](p, "address")
	if err != nil {
		t.Fatalf("address as proxy: unexpected error: %v", err)
	}
	if city, _ := Property[string](nested, "city"); city != "Paris" {
		t.Errorf("expected Paris, got %q", city)
	}
}

func TestConversionMismatches(t *testing.T) {
	doc := `{"name":"Alice","age":42,"ratio":1.5,"huge":300,"neg":-1,"when":"yesterday"}`
	p := newPerson(t, newFakeOps(nil), doc).Proxy

	tests := []struct {
		name  string
		field string
		read  func() error
	}{
		{"string as int", "name", func() error { _, err := Property[int](p, "name"); return err }},
		{"number as string", "age", func() error { _, err := Property[string](p, "age"); return err }},
		{"fraction as int", "ratio", func() error { _, err := Property[int](p, "ratio"); return err }},
		{"int8 overflow", "huge", func() error { _, err := Property[int8](p, "huge"); return err }},
		{"negative as uint", "neg", func() error { _, err := Property[uint](p, "neg"); return err }},
		{"bad timestamp", "when", func() error { _, err := Property[time.Time](p, "when"); return err }},
		{"number as bool", "age", func() error { _, err := Property[bool](p, "age"); return err }},
		{"scalar as slice", "name", func() error { _, err := Property[[]string](p, "name"); return err }},
		{"scalar as resource", "name", func() error { _, err := Property[person](p, "name"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if !herrors.IsTypeConversion(err) {
				t.Fatalf("expected TYPE_CONVERSION, got %v", err)
			}
			appErr, _ := herrors.AsAppError(err)
			if appErr.Details["name"] != tt.field {
				t.Errorf("expected name %q in details, got %v", tt.field, appErr.Details["name"])
			}
		})
	}

	// A failed conversion leaves the proxy usable.
	if name, err := Property[string](p, "name"); err != nil || name != "Alice" {
		t.Errorf("expected Alice after failed conversions, got %q (%v)", name, err)
	}
}

func TestParseIntNotations(t *testing.T) {
	tests := []struct {
		in      string
		bits    int
		want    int64
		wantErr bool
	}{
		{"42", 64, 42, false},
		{"3.0", 64, 3, false},
		{"3e2", 64, 300, false},
		{"-128", 8, -128, false},
		{"128", 8, 0, true},
		{"1e3", 8, 0, true},
		{"2.5", 64, 0, true},
	}

	for _, tt := range tests {
		got, err := parseInt(tt.in, tt.bits)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInt(%q, %d): unexpected error state %v", tt.in, tt.bits, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseInt(%q, %d): expected %d, got %d", tt.in, tt.bits, tt.want, got)
		}
	}
}

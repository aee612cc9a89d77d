package canonicaljson

import (
	"testing"
)

func TestNormalizeKeyOrderIndependent(t *testing.T) {
	a := []byte(`{"provider":"openai","name":"gpt-4o","parameters":{"temperature":0.7,"max_tokens":2048}}`)
	b := []byte(`{"parameters":{"max_tokens":2048,"temperature":0.7},"name":"gpt-4o","provider":"openai"}`)

	ca, err := Normalize(a)
	if err != nil {
		t.Fatalf("normalize a: %v", err)
	}
	cb, err := Normalize(b)
	if err != nil {
		t.Fatalf("normalize b: %v", err)
	}
	if string(ca) != string(cb) {
		t.Errorf("canonical forms differ:\n%s\n%s", ca, cb)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{
			name: "reordered keys",
			a:    `{"x":1,"y":2}`,
			b:    `{"y":2,"x":1}`,
			want: true,
		},
		{
			name: "whitespace ignored",
			a:    `{ "x": 1 }`,
			b:    `{"x":1}`,
			want: true,
		},
		{
			name: "different values",
			a:    `{"x":1}`,
			b:    `{"x":2}`,
			want: false,
		},
		{
			name: "array order matters",
			a:    `{"stop":["a","b"]}`,
			b:    `{"stop":["b","a"]}`,
			want: false,
		},
		{
			name: "number formatting irrelevant",
			a:    `{"t":0.70}`,
			b:    `{"t":0.7}`,
			want: true,
		},
		{
			name: "large integers compare exactly",
			a:    `{"account_id":9007199254740993}`,
			b:    `{"account_id":9007199254740992}`,
			want: false,
		},
		{
			name: "large integer against itself",
			a:    `{"account_id":9007199254740993}`,
			b:    `{"account_id":9007199254740993}`,
			want: true,
		},
		{
			name: "exponent notation",
			a:    `{"n":1e3}`,
			b:    `{"n":1000}`,
			want: true,
		},
		{
			name: "number against string",
			a:    `{"n":1}`,
			b:    `{"n":"1"}`,
			want: false,
		},
		{
			name: "malformed left side",
			a:    `{`,
			b:    `{}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal([]byte(tt.a), []byte(tt.b)); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// Integers past 2^53 cannot survive a float64 round trip; they must
// pass through normalization byte-for-byte.
func TestNormalizePreservesLargeIntegers(t *testing.T) {
	in := []byte(`{"project_id":9007199254740993}`)

	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if string(out) != `{"project_id":9007199254740993}` {
		t.Errorf("Normalize(%s) = %s", in, out)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	v := map[string]interface{}{"b": 2, "a": 1, "c": map[string]interface{}{"z": 0, "y": 9}}

	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("non-deterministic output: %s vs %s", again, first)
		}
	}
}

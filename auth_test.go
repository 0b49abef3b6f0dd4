package main

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"ana@example.com", "ana@example.com", true},
		{"  Ana@Example.COM ", "ana@example.com", true},
		{"Bob <bob@example.com>", "", false},
		{"<bob@example.com>", "", false},
		{"bob@example.com (Bob)", "", false},
		{"not-an-email", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := normalizeEmail(tc.in)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("normalizeEmail(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

package scraper

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"555-123-4567", "5551234567"},
		{"+1 555 123 4567", "+15551234567"},
		{"(555) 123-4567", "5551234567"},
		{"  5551234567  ", "5551234567"},
		{"abc=123", ""},
		{"a:b4567890123", ""},
		{"12345", ""},
		{"", ""},
		{"   ", ""},
		{"no digits here", ""},
		{"1234567890123456", ""},
		{"+123456789012345", "+123456789012345"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

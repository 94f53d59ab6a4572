package httpapi

import "testing"

func TestIsValidHTTPURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://EXAMPLE.com/products/tea", true},
		{"ftp://x", false},
		{"", false},
		{"https://", false},
		{"TEST-PAGE", false},
	}
	for _, c := range cases {
		if got := isValidHTTPURL(c.in); got != c.want {
			t.Fatalf("isValidHTTPURL(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

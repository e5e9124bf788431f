package reliability

import "testing"

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{200, "ok"},
		{400, "rejected"},
		{404, "rejected"},
		{429, "rate_limited"},
		{500, "upstream_error"},
		{503, "upstream_error"},
	}
	for _, tc := range cases {
		if got := ClassifyHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("ClassifyHTTPStatus(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		if got := IsTransientHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("IsTransientHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

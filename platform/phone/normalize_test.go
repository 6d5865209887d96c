package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"030 12345678", "+493012345678"},
		{"+49 30 12345678", "+493012345678"},
		{"Tel.: 030 12345678", "+493012345678"},
		{"0171 1234567, 030 12345678", "+491711234567"},
		{"0049 30 12345678", "+493012345678"},
		{"030 12345678 / 0171 1234567", "+493012345678"},
		{"  ", ""},
		{"not a number", "not a number"},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

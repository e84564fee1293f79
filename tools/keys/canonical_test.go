package keys

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a@x.com", "a_x_com"},
		{"A@X.com", "a_x_com"},
		{"  A@X.com  ", "a_x_com"},
		{"kim.cheolsu+bank@school.kr", "kim_cheolsu_bank_school_kr"},
		{"user#3[admin]$", "user_3_admin__"},
		{"path/injection", "path_injection"},
		{"홍길동", "홍길동"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// 幂等：canonicalize(canonicalize(x)) == canonicalize(x)
func TestCanonicalIdempotent(t *testing.T) {
	inputs := []string{"a@x.com", "A@X.com", "display name", "Mixed.Case+Tag@Mail.Com", "u_1", ""}
	for _, in := range inputs {
		once := Canonical(in)
		twice := Canonical(once)
		if once != twice {
			t.Errorf("not idempotent: Canonical(%q)=%q, Canonical again=%q", in, once, twice)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("a@x.com", "A@X.com") {
		t.Error("casing variants must map to the same key")
	}
	if Equal("a@x.com", "b@x.com") {
		t.Error("different identifiers must not collide")
	}
}

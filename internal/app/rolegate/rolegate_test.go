package rolegate

import "testing"

func TestAllowed(t *testing.T) {
	cases := []struct {
		name   string
		actor  string
		roles  []string
		allow  []string
		bypass []string
		want   bool
	}{
		{"role match", "u1", []string{"r1", "r2"}, []string{"r2"}, nil, true},
		{"no match", "u1", []string{"r1"}, []string{"r2", "r3"}, nil, false},
		{"bypass without roles", "u9", nil, []string{"r2"}, []string{"u9"}, true},
		{"empty allow", "u1", []string{"r1"}, nil, nil, false},
		{"blank allow entry never matches", "u1", []string{""}, []string{""}, nil, false},
		{"blank bypass never matches", "", nil, nil, []string{""}, false},
	}
	for _, c := range cases {
		if got := Allowed(c.actor, c.roles, c.allow, c.bypass); got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

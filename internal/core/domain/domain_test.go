package domain

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"SESSION_INITIATOR":   RoleSessionInitiator,
		"session_initiator":   RoleSessionInitiator,
		" Session_Initiator ": RoleSessionInitiator,
		"GUEST":               RoleGuest,
		"guest":               RoleGuest,
		"ADMIN":               RoleGuest,
		"":                    RoleGuest,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestValidSessionCode(t *testing.T) {
	valid := []string{"ABC123", "000000", "ZZZZZZ"}
	invalid := []string{"", "abc123", "ABC12", "ABC1234", "ABC-12"}

	for _, c := range valid {
		if !ValidSessionCode(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
	for _, c := range invalid {
		if ValidSessionCode(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

func TestUserCanInitiateSession(t *testing.T) {
	var nilUser *User
	if nilUser.CanInitiateSession() {
		t.Fatalf("nil user must not initiate sessions")
	}
	if (&User{Role: RoleGuest}).CanInitiateSession() {
		t.Fatalf("guest must not initiate sessions")
	}
	if !(&User{Role: RoleSessionInitiator}).CanInitiateSession() {
		t.Fatalf("initiator must be able to initiate sessions")
	}
}

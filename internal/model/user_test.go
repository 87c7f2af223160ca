package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"household", RoleHousehold, false},
		{"staff", RoleStaff, false},
		{"admin", RoleAdmin, false},
		// Unknown roles fail-closed.
		{"manager", "", true},
		{"Admin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"123456", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{Username: "bob"}
	if got := u.DisplayName(); got != "bob" {
		t.Errorf("expected username fallback, got %q", got)
	}
	u.Name = "Bob Builder"
	if got := u.DisplayName(); got != "Bob Builder" {
		t.Errorf("expected full name, got %q", got)
	}
}

func TestIsStaffStatus(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled} {
		if !IsStaffStatus(s) {
			t.Errorf("expected %q to be settable by staff", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, "bogus"} {
		if IsStaffStatus(s) {
			t.Errorf("expected %q not to be settable by staff", s)
		}
	}
}

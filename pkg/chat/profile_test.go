package chat

import (
	"errors"
	"testing"
)

func TestProfile_Validate(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		wantErr error
	}{
		{"valid", Profile{Botname: "Bot", Instruction: "x"}, nil},
		{"missing botname", Profile{Botname: "", Instruction: "x"}, ErrBotnameRequired},
		{"missing instruction", Profile{Botname: "Bot", Instruction: ""}, ErrInstructionRequired},
		{"missing both reports botname first", Profile{}, ErrBotnameRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestSeedProfiles_AllValid verifies every built-in profile passes the
// validity gate and is keyed by its own botname.
func TestSeedProfiles_AllValid(t *testing.T) {
	profiles := SeedProfiles()
	if len(profiles) < 3 {
		t.Fatalf("expected at least 3 built-in profiles, got %d", len(profiles))
	}
	for key, p := range profiles {
		if err := p.Validate(); err != nil {
			t.Errorf("profile %q invalid: %v", key, err)
		}
		if p.Botname != key {
			t.Errorf("profile keyed %q but botname is %q", key, p.Botname)
		}
	}
}

func TestDefaultProfile_IsSeeded(t *testing.T) {
	def := DefaultProfile()
	seeded, ok := SeedProfiles()[def.Botname]
	if !ok {
		t.Fatalf("default profile %q missing from seed directory", def.Botname)
	}
	if seeded != def {
		t.Error("seed directory entry should match the default profile")
	}
}

func TestProfiles_Clone(t *testing.T) {
	original := SeedProfiles()
	clone := original.Clone()

	clone["New"] = Profile{Botname: "New", Instruction: "x"}
	if _, ok := original["New"]; ok {
		t.Error("mutating the clone must not affect the original")
	}
}

package chat

import "errors"

var (
	ErrBotnameRequired     = errors.New("profile botname is required")
	ErrInstructionRequired = errors.New("profile instruction is required")
)

// Profile is a named AI persona configuration. Profiles are keyed by
// Botname; saving a profile under an existing botname overwrites it.
type Profile struct {
	Username    string `json:"username,omitempty"`
	Botname     string `json:"botname"`
	Instruction string `json:"instruction"`
	Model       string `json:"model,omitempty"`
}

// Validate reports why a profile may not be promoted to active or
// persisted. A profile is valid iff botname and instruction are non-empty.
func (p Profile) Validate() error {
	if p.Botname == "" {
		return ErrBotnameRequired
	}
	if p.Instruction == "" {
		return ErrInstructionRequired
	}
	return nil
}

// Profiles is the user's profile directory keyed by botname.
type Profiles map[string]Profile

// Clone returns an independent copy of the directory.
func (p Profiles) Clone() Profiles {
	out := make(Profiles, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultProfile is the active profile on first run.
func DefaultProfile() Profile {
	return Profile{
		Username: "You",
		Botname:  "KenGPT",
		Instruction: `Your name is "KenGPT". You are meant to introduce users to the KenGPT ` +
			`interface. You should advise them to create their own AI profiles or select from ` +
			`the existing built-in AI profiles. You should inform the user that the GNU GPL3 ` +
			`license and source code are available. All other topics should be denied and the ` +
			`user should be directed to try making a custom profile or using a built-in ` +
			`profile. Offer to explain the features of the interface.`,
	}
}

// SeedProfiles provides the built-in profile directory for first run.
func SeedProfiles() Profiles {
	return Profiles{
		"KenGPT": DefaultProfile(),
		"KenGPT Oracle": {
			Username: "You",
			Botname:  "KenGPT Oracle",
			Instruction: `Your name is "KenGPT Oracle". Your responses should be as in-depth as ` +
				`possible and you should never provide generalizations or simplifications. ` +
				`Answer questions with as much contextual information as possible. Attempt to ` +
				`teach the user something new by explaining the "how" and "why" of the subject.`,
		},
		"KenGPT Turbo": {
			Username: "You",
			Botname:  "KenGPT Turbo",
			Instruction: `Your name is "KenGPT Turbo". Your responses should be super short, ` +
				`concise, and direct. Answer questions with as little contextual information as ` +
				`possible. Encourage the user to ask related follow-up questions and then list ` +
				`out the parts. If the user asks a question that is too broad, respond ` +
				`encouraging them to ask a more specific question on the subject.`,
		},
	}
}

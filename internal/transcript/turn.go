// Package transcript defines the conversation turn shared by every stage of
// the engine. Turn slices are caller-owned; helpers here never modify them.
package transcript

import "fmt"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Clone returns an independent copy of turns.
func Clone(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// CountRole returns how many turns have the given role.
func CountRole(turns []Turn, role Role) int {
	n := 0
	for _, t := range turns {
		if t.Role == role {
			n++
		}
	}
	return n
}

// Split partitions turns by author, preserving order.
func Split(turns []Turn) (user, assistant []Turn) {
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			user = append(user, t)
		case RoleAssistant:
			assistant = append(assistant, t)
		}
	}
	return user, assistant
}

// Validate rejects turns with unknown roles.
func Validate(turns []Turn) error {
	for i, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("turn %d: invalid role %q", i, t.Role)
		}
	}
	return nil
}

package catalog

import (
	"fmt"
	"strings"
)

// Mode selects how a conversation is run.
type Mode string

const (
	ModeTraining Mode = "training"
	ModeSupport  Mode = "support"
)

func ParseMode(v string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(v))) {
	case ModeTraining, "":
		return ModeTraining, nil
	case ModeSupport:
		return ModeSupport, nil
	default:
		return "", fmt.Errorf("unsupported mode %q (expected training|support)", v)
	}
}

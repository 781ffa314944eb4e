package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, kinds := RedactPII(input)
	if want := []string{"email", "card", "phone"}; strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactPIIKeepsCrisisLine(t *testing.T) {
	input := "Please call or text 988 if you feel unsafe."
	out, kinds := RedactPII(input)
	if len(kinds) != 0 || out != input {
		t.Fatalf("RedactPII(%q) = %q, %v; want unchanged", input, out, kinds)
	}
}

func TestRedactPIISSN(t *testing.T) {
	out, kinds := RedactPII("my ssn is 123-45-6789")
	if out != "my ssn is [REDACTED_SSN]" || len(kinds) != 1 || kinds[0] != "ssn" {
		t.Fatalf("RedactPII() = %q, %v", out, kinds)
	}
}

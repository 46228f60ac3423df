package telemetry

// Secret holds a credential such as a collector API key. Its value is
// redacted by Stringer, fmt verbs, and text/JSON marshaling; only Reveal
// returns the underlying string.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Reveal returns the wrapped credential.
func (s Secret) Reveal() string {
	return string(s)
}

// Empty reports whether no credential is set.
func (s Secret) Empty() bool {
	return len(s) == 0
}

package types

import "log/slog"

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds credentials such as the LINE channel access token and
// the database URL. fmt, encoding/json and slog all see a placeholder; the
// raw value is only reachable through Unmask.
type SecretString string

// String returns the placeholder.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// LogValue keeps the secret out of structured log records.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// IsSet reports whether a non-empty secret was configured.
func (s SecretString) IsSet() bool {
	return s != ""
}

// Unmask returns the raw value. Call it only at the point the credential is
// handed to a driver or written into an Authorization header.
func (s SecretString) Unmask() string {
	return string(s)
}

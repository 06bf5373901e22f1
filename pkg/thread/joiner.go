package thread

import "time"

// PSKd length bounds.
const (
	MinPSKdLen = 6
	MaxPSKdLen = 32
)

// DefaultJoinerTimeout is how long a joiner entry stays valid when no timeout
// is configured.
const DefaultJoinerTimeout = 120 * time.Second

// ValidatePSKd checks a joiner pre-shared key: 6 to 32 characters of uppercase
// alphanumerics, excluding I, O, Q and Z.
func ValidatePSKd(pskd string) error {
	if len(pskd) < MinPSKdLen || len(pskd) > MaxPSKdLen {
		return ErrorInvalidArgs
	}
	for i := 0; i < len(pskd); i++ {
		c := pskd[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
			if c == 'I' || c == 'O' || c == 'Q' || c == 'Z' {
				return ErrorInvalidArgs
			}
		default:
			return ErrorInvalidArgs
		}
	}
	return nil
}

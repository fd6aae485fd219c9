package auth

const maxSessionIDLength = 128

// IsValidSessionID checks that a client-chosen session ID is 1-128
// characters of letters, digits, '.', '_' or '-'.
func IsValidSessionID(sessionID string) bool {
	if sessionID == "" || len(sessionID) > maxSessionIDLength {
		return false
	}
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

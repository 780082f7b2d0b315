package credential

import "crypto/subtle"

// VerifyAPIKey reports whether the presented key equals the configured key.
// Both must be non-empty.
func VerifyAPIKey(presented, configured string) bool {
	if presented == "" || configured == "" {
		return false
	}
	return equal(presented, configured)
}

// VerifyBasic reports whether a Basic auth username/password pair matches
// the configured pair exactly.
func VerifyBasic(username, password, configuredUser, configuredPass string) bool {
	if configuredUser == "" || configuredPass == "" {
		return false
	}
	// Evaluate both comparisons so timing does not reveal which field failed.
	userOK := equal(username, configuredUser)
	passOK := equal(password, configuredPass)
	return userOK && passOK
}

// VerifyClientPair reports whether a client id/secret pair matches the
// configured pair exactly.
func VerifyClientPair(clientID, clientSecret, configuredID, configuredSecret string) bool {
	if configuredID == "" || configuredSecret == "" {
		return false
	}
	idOK := equal(clientID, configuredID)
	secretOK := equal(clientSecret, configuredSecret)
	return idOK && secretOK
}

// equal is a constant-time string comparison.
func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

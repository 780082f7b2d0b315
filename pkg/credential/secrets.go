package credential

// Secrets holds the shared secrets each scheme is checked against.
// It is built once at startup and never mutated. An empty field disables
// the corresponding scheme: no presented value can match it.
type Secrets struct {
	APIKey        string
	BasicUsername string
	BasicPassword string
	ClientID      string
	ClientSecret  string
}

// APIKeyEnabled reports whether a static API key is configured.
func (s Secrets) APIKeyEnabled() bool {
	return s.APIKey != ""
}

// BasicEnabled reports whether both Basic auth fields are configured.
func (s Secrets) BasicEnabled() bool {
	return s.BasicUsername != "" && s.BasicPassword != ""
}

// ClientEnabled reports whether a client id/secret pair is configured.
// The client secret also signs issued tokens, so bearer verification
// depends on it too.
func (s Secrets) ClientEnabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

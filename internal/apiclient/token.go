package apiclient

// TokenSource supplies the bearer token attached to outgoing calls.
// An empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a token captured once, when the client is built.
// A login that happens later is not seen by a client using it.
type StaticToken string

// Token returns the captured token.
func (t StaticToken) Token() string {
	return string(t)
}

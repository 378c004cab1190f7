package auth

// Assertion is a credential presented in exchange for a session token.
// The concrete type selects the verification path; there is no shared
// entry point where a mock could stand in for a verified credential.
type Assertion interface {
	assertion()
}

// GoogleIDToken is a raw Google ID token obtained by the client.
type GoogleIDToken struct {
	Credential string
}

// GoogleAuthCode is an OAuth authorization code to be exchanged server-side.
type GoogleAuthCode struct {
	Code string
}

// MockAssertion is an unverified email/name pair for development logins.
type MockAssertion struct {
	Email string
	Name  string
}

func (GoogleIDToken) assertion()  {}
func (GoogleAuthCode) assertion() {}
func (MockAssertion) assertion()  {}

// Package identity talks to the upstream identity provider. The rest of
// the codebase only sees the Verifier interface and the verified
// email/name/subject triple it yields.
package identity

import "context"

// Profile is the verified identity returned by the upstream provider
type Profile struct {
	Email     string
	Name      string
	SubjectID string
}

// Verifier exchanges an OAuth authorization code for a verified profile
// and produces the URL that starts the login flow.
type Verifier interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

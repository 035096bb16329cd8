package service

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google ID tokens against a configured OAuth
// client id.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier constructs a GoogleVerifier for the given client id.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks the token signature and audience and extracts the
// verified email and display name.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("id token carries no email claim")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("email %s is not verified by the provider", email)
	}
	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = email
	}

	return &Identity{Email: email, FullName: name}, nil
}

package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"health-record-access/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier contra el identity provider.
// Se instancia desde main cuando IDP_BASE_URL está configurado.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrIDPNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		// Normalizamos un poco, sin inventar semánticas nuevas.
		// El middleware actual ya decide si corta o no.
		return auth.Claims{}, fmt.Errorf("idp verify failed: %w", err)
	}

	claims.ProfessionalID = strings.TrimSpace(claims.ProfessionalID)
	if claims.ProfessionalID == "" {
		return auth.Claims{}, errors.New("idp claims missing professional id")
	}

	return claims, nil
}

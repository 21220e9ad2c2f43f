package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"health-record-access/internal/platform/httpclient"
	"health-record-access/internal/platform/logger"
	"health-record-access/internal/ports/auth"
)

var (
	ErrIDPNotConfigured = errors.New("idp client not configured")
	ErrIDPUnauthorized  = errors.New("idp unauthorized")
	ErrIDPUpstream      = errors.New("idp upstream error")
)

// Config del cliente del identity provider.
// BaseURL y APIKey normalmente vendrán de env vars en el servicio que lo instancie.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: nombre del header donde se manda la API key.
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	log          logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		log:          log,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// VerifyToken llama al IdP para verificar un token y traer los claims del
// profesional. El core asume la identidad ya resuelta; este cliente es la
// costura donde eso ocurre.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrIDPNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrIDPUnauthorized
	}

	const verifyPath = "/v1/tokens/verify"

	var out struct {
		ProfessionalID string `json:"professional_id"`
		Email          string `json:"email"`
		OrganizationID string `json:"organization_id"`
	}

	err := c.http.DoJSON(ctx, "POST", verifyPath,
		map[string]string{
			c.apiKeyHeader: c.apiKey,
			// Algunos IdP esperan el token en Authorization, aunque también vaya en body.
			"Authorization": "Bearer " + token,
		},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == 401 || httpErr.StatusCode == 403 {
				return auth.Claims{}, ErrIDPUnauthorized
			}
			if c.log != nil {
				c.log.Warn("idp verify failed", map[string]any{"status": httpErr.StatusCode})
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrIDPUpstream, httpErr.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrIDPUpstream, err)
	}

	out.ProfessionalID = strings.TrimSpace(out.ProfessionalID)
	if out.ProfessionalID == "" {
		return auth.Claims{}, errors.New("idp response missing professional_id")
	}

	return auth.Claims{
		ProfessionalID: out.ProfessionalID,
		Email:          strings.TrimSpace(out.Email),
		OrganizationID: strings.TrimSpace(out.OrganizationID),
	}, nil
}

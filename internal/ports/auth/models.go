package auth

// Claims representa la identidad del profesional extraída del token.
type Claims struct {
	ProfessionalID string
	Email          string
	OrganizationID string
}

package directory

import "time"

// Organization es inmutable una vez creada.
type Organization struct {
	ID   string
	Name string

	CreatedAt time.Time
}

// Patient referencia a su organización solo por ID; resolverla es un
// lookup explícito al store, nunca data cacheada.
type Patient struct {
	ID   string
	Name string

	OrganizationID string // mutable únicamente vía Transfer

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Professional struct {
	ID   string
	Name string

	OrganizationID string

	CreatedAt time.Time
}

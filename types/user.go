package types

import "time"

// TipoPendente is the placeholder category assigned when a local row is
// back-filled during login, before an admin assigns a real category.
const TipoPendente = "pendente"

// User is the local account record. The ID is issued by the identity
// provider; the local id space mirrors the provider's, it is never
// generated here.
type User struct {
	// ID is the provider-issued user id (a UUID).
	ID string `json:"id" db:"id"`

	// Email is unique across all local records.
	Email string `json:"email" db:"email"`

	// Nome is the display name. Rows back-filled during login have none.
	Nome *string `json:"nome" db:"nome"`

	// Tipo is the account category ("pendente" until assigned).
	Tipo string `json:"tipo" db:"tipo"`

	// CriadoEm is the creation timestamp, the sort key for listings.
	CriadoEm time.Time `json:"criado_em" db:"criado_em"`
}

package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller did not set one. Postgres also
// defaults ids with gen_random_uuid(); SQLite-backed tests rely on this hook.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

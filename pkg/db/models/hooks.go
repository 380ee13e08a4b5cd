package models

import "github.com/google/uuid"

// ensureID fills a zero primary key so rows can be linked before insert,
// and so drivers without gen_random_uuid() still get ids.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

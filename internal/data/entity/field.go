package entity

import "github.com/google/uuid"

type Field struct {
	Base
	Name     string     `db:"name"`
	City     string     `db:"city"`
	Capacity int        `db:"capacity"`
	OwnerID  uuid.UUID  `db:"owner_id"`
	CoachID  *uuid.UUID `db:"coach_id"`
}

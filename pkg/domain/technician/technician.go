package technician

import "github.com/google/uuid"

type Technician struct {
	ID          uuid.UUID
	Name        string
	Email       string
	CountryCode string
}

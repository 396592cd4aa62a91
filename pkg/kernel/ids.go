package kernel

import "github.com/google/uuid"

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// NewID returns a random UUID string, the identifier format of every record.
func NewID() string {
	return uuid.NewString()
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// UnlimitedAttempts is the sentinel for MaxTestAttempts meaning "no cap".
const UnlimitedAttempts = -1

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:64"`
	FullName string   `json:"full_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Phone    string   `json:"phone" gorm:"size:32"`
	Role     UserRole `json:"role" gorm:"not null;default:student;index" validate:"omitempty,oneof=admin student"`

	// Credentials are local to the platform; there is no external IdP.
	PasswordHash string `json:"-" gorm:"not null;size:100"`

	// Access state
	IsBlocked       bool `json:"is_blocked" gorm:"not null;default:false;index"`
	FreeTestUsed    bool `json:"free_test_used" gorm:"not null;default:false"`
	TestAttempts    int  `json:"test_attempts" gorm:"not null;default:0"`
	MaxTestAttempts int  `json:"max_test_attempts" gorm:"not null;default:1"` // -1 = unlimited

	// Direction IDs the user has been granted, stored as a JSON string array.
	AllowedDirections datatypes.JSONSlice[string] `json:"allowed_directions" gorm:"type:jsonb"`

	// Profile
	ProfileImage *string `json:"profile_image" gorm:"size:500"`
	Bio          *string `json:"bio" gorm:"type:text" validate:"omitempty,max=1000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasUnlimitedAttempts reports whether the attempt cap is the -1 sentinel.
func (u *User) HasUnlimitedAttempts() bool {
	return u.MaxTestAttempts == UnlimitedAttempts
}

// HasDirection reports whether the direction id is in the granted set.
func (u *User) HasDirection(directionID string) bool {
	for _, id := range u.AllowedDirections {
		if id == directionID {
			return true
		}
	}
	return false
}

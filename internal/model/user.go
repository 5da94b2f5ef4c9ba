package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

const DefaultPhoto = "default.jpg"

// User represents an account in the system. Credential and reset fields are
// never serialized.
type User struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name                 string     `json:"name" gorm:"size:255;not null"`
	Email                string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Photo                string     `json:"photo" gorm:"size:255;not null;default:'default.jpg'"`
	Role                 Role       `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Password             string     `json:"-" gorm:"size:255;not null"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-" gorm:"size:64;index"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-" gorm:"not null;default:true"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"-"`
}

// BeforeCreate assigns the UUID and applies defaults before insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Active = true
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FirstName returns the first word of the display name.
func (u *User) FirstName() string {
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		return fields[0]
	}
	return u.Name
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at iat. Comparison is done at second precision, matching JWT iat.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

// SetPassword stores a new hash and marks the change one second in the past so
// a token issued right after the change stays valid.
func (u *User) SetPassword(hash string, now time.Time) {
	u.Password = hash
	changed := now.Add(-time.Second)
	u.PasswordChangedAt = &changed
}

// SetResetToken records the hashed reset token and its expiry.
func (u *User) SetResetToken(hash string, expires time.Time) {
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expires
}

// ClearResetToken removes any pending reset token.
func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

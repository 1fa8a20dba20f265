package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UsernameMaxLen caps users.username.
const UsernameMaxLen = 150

// User is the users table. CreatedAt doubles as the join date.
type User struct {
	Base
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// PasswordCost is the bcrypt cost used by HashPassword.
var PasswordCost = bcrypt.DefaultCost

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	return string(hash), err
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

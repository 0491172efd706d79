package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Participant is an anonymous credential issued when a survey session starts.
// Only a bcrypt hash of the credential token is stored.
type Participant struct {
	ID            uint   `gorm:"primaryKey"`
	ParticipantID string `gorm:"index"`
	TokenHash     string
	CreatedAt     time.Time
}

// CheckToken reports whether token matches the stored credential.
func (p *Participant) CheckToken(token string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(p.TokenHash), []byte(token))
	return err == nil
}

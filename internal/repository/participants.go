package repository

import (
	"context"

	"facerate-go/internal/models"
	"facerate-go/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ParticipantRepository issues and checks anonymous credentials.
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// SignInAnonymously creates a credential for participantID and returns it
// together with the plain token, which is only ever held by the client.
func (r *ParticipantRepository) SignInAnonymously(ctx context.Context, participantID string) (*models.Participant, string, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	p := &models.Participant{
		ParticipantID: participantID,
		TokenHash:     string(hash),
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, "", err
	}
	return p, token, nil
}

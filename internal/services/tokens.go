package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

// tokenBytes random bytes give a 40 character hex key.
const tokenBytes = 20

type TokenService struct {
	tokens repositories.TokenRepository
	now    func() time.Time
}

func NewTokenService(tokens repositories.TokenRepository) *TokenService {
	return &TokenService{tokens: tokens, now: time.Now}
}

func GenerateKey() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IssueOrRotate always mints a fresh key; any key the user held before stops
// authenticating.
func (s *TokenService) IssueOrRotate(ctx context.Context, userID int64) (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}

	token := &models.Token{Key: key, UserID: userID, Timestamps: models.NewTimestamps(s.now().UTC())}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return key, nil
}

func (s *TokenService) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.tokens.GetUserByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}

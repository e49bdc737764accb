package profiles

import (
	"context"
	"fmt"

	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/google/uuid"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// Service exposes profile reads and the self-update operation.
type Service interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)
	GetByUsername(ctx context.Context, username string) (*ProfileDTO, error)
}

type service struct {
	repo profileRepository
}

// NewService constructs a profile service with the provided repository.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetMe(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return FromModel(profile), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}

	if req.DisplayName != nil {
		profile.DisplayName = req.DisplayName
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return FromModel(profile), nil
}

func (s *service) GetByUsername(ctx context.Context, username string) (*ProfileDTO, error) {
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	profile, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return FromModel(profile), nil
}

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/rules"
	"github.com/ivankudzin/loveconnect/backend/internal/pkg/validate"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
	"github.com/ivankudzin/loveconnect/backend/internal/services/media"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email already registered")
)

type Store interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, userID int64) (model.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch pgrepo.UserPatch) (model.User, string, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type ImageStore interface {
	StoreProfileImage(ctx context.Context, up media.Upload) (string, error)
	Delete(ctx context.Context, ref string) error
	Locate(ctx context.Context, ref string) string
}

type Dependencies struct {
	Store     Store
	Passwords PasswordHasher
	Images    ImageStore
	Logger    *zap.Logger
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Age       int
	Gender    string
	Email     string
	Password  string
	Bio       string
	Interests []string
}

type UpdateInput struct {
	FirstName *string
	LastName  *string
	Age       *int
	Gender    *string
	Email     *string
	Bio       *string
	Interests *[]string
}

type Profile struct {
	ID           int64
	FirstName    string
	LastName     string
	Age          int
	Gender       enums.Gender
	Email        string
	Bio          string
	Interests    []string
	ProfileImage string
}

type Service struct {
	store     Store
	passwords PasswordHasher
	images    ImageStore
	logger    *zap.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		store:     deps.Store,
		passwords: deps.Passwords,
		images:    deps.Images,
		logger:    deps.Logger,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput, image *media.Upload) (Profile, error) {
	if s.store == nil || s.passwords == nil {
		return Profile{}, fmt.Errorf("users service is not configured")
	}

	user, err := s.validateRegistration(in)
	if err != nil {
		return Profile{}, err
	}

	user.PasswordHash, err = s.passwords.Hash(in.Password)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}

	if image != nil {
		ref, err := s.storeImage(ctx, *image)
		if err != nil {
			return Profile{}, err
		}
		user.ProfileImage = ref
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		s.discardImage(ctx, user.ProfileImage)
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return Profile{}, ErrEmailTaken
		}
		return Profile{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", created.ID))
	return s.toProfile(ctx, created), nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("users service is not configured")
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get user: %w", err)
	}

	return s.toProfile(ctx, user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in UpdateInput, image *media.Upload) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("users service is not configured")
	}

	patch, err := buildPatch(in)
	if err != nil {
		return Profile{}, err
	}

	newRef := ""
	if image != nil {
		newRef, err = s.storeImage(ctx, *image)
		if err != nil {
			return Profile{}, err
		}
		patch.ProfileImage = &newRef
	}

	updated, oldRef, err := s.store.UpdateProfile(ctx, userID, patch)
	if err != nil {
		s.discardImage(ctx, newRef)
		switch {
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return Profile{}, ErrNotFound
		case errors.Is(err, pgrepo.ErrEmailTaken):
			return Profile{}, ErrEmailTaken
		default:
			return Profile{}, fmt.Errorf("update profile: %w", err)
		}
	}

	if newRef != "" && oldRef != "" && oldRef != newRef {
		if err := s.images.Delete(ctx, oldRef); err != nil {
			s.logger.Warn("previous profile image left orphaned",
				zap.Int64("user_id", userID),
				zap.String("ref", oldRef),
				zap.Error(err),
			)
		}
	}

	return s.toProfile(ctx, updated), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.store == nil || s.passwords == nil {
		return fmt.Errorf("users service is not configured")
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, current) {
		return ErrUnauthorized
	}
	if len(next) < rules.MinPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", ErrValidation, rules.MinPasswordLength)
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

func (s *Service) validateRegistration(in RegisterInput) (model.User, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if !validate.Required(firstName) || !validate.Required(lastName) {
		return model.User{}, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if !rules.ValidAge(in.Age) {
		return model.User{}, fmt.Errorf("%w: age must be between %d and %d", ErrValidation, rules.MinAge, rules.MaxAge)
	}
	gender, ok := enums.ParseGender(in.Gender)
	if !ok {
		return model.User{}, fmt.Errorf("%w: unsupported gender", ErrValidation)
	}
	if !validate.Email(in.Email) {
		return model.User{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < rules.MinPasswordLength {
		return model.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, rules.MinPasswordLength)
	}
	bio := strings.TrimSpace(in.Bio)
	if len([]rune(bio)) > rules.MaxBioLength {
		return model.User{}, fmt.Errorf("%w: bio is too long", ErrValidation)
	}
	interests, ok := rules.NormalizeInterests(in.Interests)
	if !ok {
		return model.User{}, fmt.Errorf("%w: at most %d interests allowed", ErrValidation, rules.MaxInterests)
	}

	return model.User{
		FirstName: firstName,
		LastName:  lastName,
		Age:       in.Age,
		Gender:    gender,
		Email:     rules.NormalizeEmail(in.Email),
		Bio:       bio,
		Interests: interests,
	}, nil
}

func buildPatch(in UpdateInput) (pgrepo.UserPatch, error) {
	var patch pgrepo.UserPatch

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if !validate.Required(v) {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: first name must not be empty", ErrValidation)
		}
		patch.FirstName = &v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if !validate.Required(v) {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: last name must not be empty", ErrValidation)
		}
		patch.LastName = &v
	}
	if in.Age != nil {
		if !rules.ValidAge(*in.Age) {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: age must be between %d and %d", ErrValidation, rules.MinAge, rules.MaxAge)
		}
		v := *in.Age
		patch.Age = &v
	}
	if in.Gender != nil {
		gender, ok := enums.ParseGender(*in.Gender)
		if !ok {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: unsupported gender", ErrValidation)
		}
		v := string(gender)
		patch.Gender = &v
	}
	if in.Email != nil {
		if !validate.Email(*in.Email) {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		v := rules.NormalizeEmail(*in.Email)
		patch.Email = &v
	}
	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		if len([]rune(v)) > rules.MaxBioLength {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: bio is too long", ErrValidation)
		}
		patch.Bio = &v
	}
	if in.Interests != nil {
		interests, ok := rules.NormalizeInterests(*in.Interests)
		if !ok {
			return pgrepo.UserPatch{}, fmt.Errorf("%w: at most %d interests allowed", ErrValidation, rules.MaxInterests)
		}
		patch.Interests = interests
		patch.SetInterests = true
	}

	return patch, nil
}

func (s *Service) storeImage(ctx context.Context, up media.Upload) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	ref, err := s.images.StoreProfileImage(ctx, up)
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Service) discardImage(ctx context.Context, ref string) {
	if ref == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.logger.Warn("failed to discard uploaded image", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *Service) toProfile(ctx context.Context, user model.User) Profile {
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	image := ""
	if s.images != nil && user.ProfileImage != "" {
		image = s.images.Locate(ctx, user.ProfileImage)
	}

	return Profile{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Age:          user.Age,
		Gender:       user.Gender,
		Email:        user.Email,
		Bio:          user.Bio,
		Interests:    interests,
		ProfileImage: image,
	}
}

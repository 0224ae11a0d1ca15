package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
	"github.com/ivankudzin/loveconnect/backend/internal/services/credentials"
	"github.com/ivankudzin/loveconnect/backend/internal/services/media"
)

type userStoreStub struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]model.User
	createErr error
	updateErr error
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[int64]model.User)}
}

func (s *userStoreStub) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return model.User{}, s.createErr
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return model.User{}, pgrepo.ErrEmailTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *userStoreStub) GetByID(_ context.Context, userID int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *userStoreStub) UpdateProfile(_ context.Context, userID int64, patch pgrepo.UserPatch) (model.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return model.User{}, "", s.updateErr
	}
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, "", pgrepo.ErrUserNotFound
	}
	if patch.Email != nil {
		for id, existing := range s.users {
			if id != userID && strings.EqualFold(existing.Email, *patch.Email) {
				return model.User{}, "", pgrepo.ErrEmailTaken
			}
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Age != nil {
		user.Age = *patch.Age
	}
	if patch.Gender != nil {
		user.Gender = enums.Gender(*patch.Gender)
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.SetInterests {
		user.Interests = patch.Interests
	}
	oldImage := ""
	if patch.ProfileImage != nil {
		oldImage = user.ProfileImage
		user.ProfileImage = *patch.ProfileImage
	}
	s.users[userID] = user
	return user, oldImage, nil
}

func (s *userStoreStub) UpdatePasswordHash(_ context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.PasswordHash = hash
	s.users[userID] = user
	return nil
}

type imageStoreStub struct {
	stored    []string
	deleted   []string
	storeErr  error
	deleteErr error
}

func (s *imageStoreStub) StoreProfileImage(_ context.Context, _ media.Upload) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	ref := "profiles/img" + string(rune('a'+len(s.stored))) + ".png"
	s.stored = append(s.stored, ref)
	return ref, nil
}

func (s *imageStoreStub) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return s.deleteErr
}

func (s *imageStoreStub) Locate(_ context.Context, ref string) string {
	if ref == "" {
		return ""
	}
	return "http://localhost:5000/uploads/" + ref
}

func newTestService() (*Service, *userStoreStub, *imageStoreStub) {
	store := newUserStoreStub()
	images := &imageStoreStub{}
	svc := NewService(Dependencies{
		Store:     store,
		Passwords: credentials.NewHasher(4),
		Images:    images,
	})
	return svc, store, images
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Anna",
		LastName:  "Smith",
		Age:       25,
		Gender:    "female",
		Email:     "Anna@Example.com",
		Password:  "secret1",
		Bio:       "hi",
		Interests: []string{"hiking", " music ", "hiking"},
	}
}

func imageUpload() *media.Upload {
	return &media.Upload{FileName: "me.png", Size: 10, Body: strings.NewReader("0123456789")}
}

func TestRegisterNormalizesAndHashes(t *testing.T) {
	svc, store, images := newTestService()

	profile, err := svc.Register(context.Background(), validRegistration(), imageUpload())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Email != "anna@example.com" {
		t.Fatalf("unexpected email: %q", profile.Email)
	}
	if len(profile.Interests) != 2 || profile.Interests[1] != "music" {
		t.Fatalf("unexpected interests: %v", profile.Interests)
	}
	if profile.ProfileImage != "http://localhost:5000/uploads/"+images.stored[0] {
		t.Fatalf("unexpected profile image: %q", profile.ProfileImage)
	}

	stored := store.users[profile.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed")
	}
	if stored.ProfileImage != images.stored[0] {
		t.Fatalf("row must carry raw image ref, got %q", stored.ProfileImage)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{name: "missing_first_name", mutate: func(in *RegisterInput) { in.FirstName = "  " }},
		{name: "underage", mutate: func(in *RegisterInput) { in.Age = 17 }},
		{name: "bad_gender", mutate: func(in *RegisterInput) { in.Gender = "robot" }},
		{name: "bad_email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }},
		{name: "short_password", mutate: func(in *RegisterInput) { in.Password = "12345" }},
		{name: "too_many_interests", mutate: func(in *RegisterInput) { in.Interests = []string{"a", "b", "c", "d"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, images := newTestService()
			in := validRegistration()
			tc.mutate(&in)

			_, err := svc.Register(context.Background(), in, imageUpload())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(store.users) != 0 || len(images.stored) != 0 {
				t.Fatalf("invalid registration must not persist anything")
			}
		})
	}
}

func TestRegisterDuplicateEmailDiscardsImage(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := validRegistration()
	in.Email = "ANNA@example.com"
	_, err := svc.Register(ctx, in, imageUpload())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != images.stored[0] {
		t.Fatalf("orphaned upload must be removed, deleted=%v", images.deleted)
	}
}

func TestRegisterPropagatesMediaErrors(t *testing.T) {
	svc, store, images := newTestService()
	images.storeErr = media.ErrUnsupportedMedia

	_, err := svc.Register(context.Background(), validRegistration(), imageUpload())
	if !errors.Is(err, media.ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
	if len(store.users) != 0 {
		t.Fatalf("user must not be created when the image is rejected")
	}
}

func TestProfileNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Profile(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfileIsPartial(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	bio := "updated bio"
	interests := []string{"chess"}
	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateInput{Bio: &bio, Interests: &interests}, nil)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Bio != "updated bio" {
		t.Fatalf("unexpected bio: %q", updated.Bio)
	}
	if len(updated.Interests) != 1 || updated.Interests[0] != "chess" {
		t.Fatalf("unexpected interests: %v", updated.Interests)
	}
	if updated.FirstName != "Anna" || updated.Age != 25 || updated.Email != "anna@example.com" {
		t.Fatalf("absent fields must be preserved: %+v", updated)
	}
}

func TestUpdateProfileSwapsImage(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), imageUpload())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	oldRef := images.stored[0]

	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateInput{}, imageUpload())
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	newRef := images.stored[1]
	if updated.ProfileImage != "http://localhost:5000/uploads/"+newRef {
		t.Fatalf("unexpected profile image: %q", updated.ProfileImage)
	}
	if len(images.deleted) != 1 || images.deleted[0] != oldRef {
		t.Fatalf("previous image must be deleted, deleted=%v", images.deleted)
	}
}

func TestUpdateProfileDeletesNewImageWhenRowUpdateFails(t *testing.T) {
	svc, store, images := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), imageUpload())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	store.updateErr = errors.New("db down")

	if _, err := svc.UpdateProfile(ctx, created.ID, UpdateInput{}, imageUpload()); err == nil {
		t.Fatalf("expected update error")
	}
	if len(images.deleted) != 1 || images.deleted[0] != images.stored[1] {
		t.Fatalf("new image must be removed on failure, deleted=%v", images.deleted)
	}
	if store.users[created.ID].ProfileImage != images.stored[0] {
		t.Fatalf("row must still reference the original image")
	}
}

func TestUpdateProfileKeepsGoingWhenOldImageDeleteFails(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), imageUpload())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	images.deleteErr = errors.New("bucket unavailable")

	if _, err := svc.UpdateProfile(ctx, created.ID, UpdateInput{}, imageUpload()); err != nil {
		t.Fatalf("update must succeed even if the old image stays behind: %v", err)
	}
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("register anna: %v", err)
	}
	other := validRegistration()
	other.Email = "kate@example.com"
	kate, err := svc.Register(ctx, other, nil)
	if err != nil {
		t.Fatalf("register kate: %v", err)
	}

	email := "anna@example.com"
	if _, err := svc.UpdateProfile(ctx, kate.ID, UpdateInput{Email: &email}, nil); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateProfileValidatesPresentFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	age := 12
	if _, err := svc.UpdateProfile(ctx, created.ID, UpdateInput{Age: &age}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration(), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	originalHash := store.users[created.ID].PasswordHash

	if err := svc.ChangePassword(ctx, created.ID, "wrong-pass", "newsecret"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if store.users[created.ID].PasswordHash != originalHash {
		t.Fatalf("hash must not change on wrong current password")
	}

	if err := svc.ChangePassword(ctx, created.ID, "secret1", "123"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	hasher := credentials.NewHasher(4)
	if !hasher.Verify(store.users[created.ID].PasswordHash, "newsecret") {
		t.Fatalf("new password must verify")
	}
	if hasher.Verify(store.users[created.ID].PasswordHash, "secret1") {
		t.Fatalf("old password must no longer verify")
	}

	if err := svc.ChangePassword(ctx, 999, "secret1", "newsecret"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

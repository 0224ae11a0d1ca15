package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	"github.com/ivankudzin/loveconnect/backend/internal/services/credentials"
	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
	userssvc "github.com/ivankudzin/loveconnect/backend/internal/services/users"
)

type swipeKey struct {
	from int64
	to   int64
}

type ledgerStub struct {
	mu    sync.Mutex
	rows  map[swipeKey]enums.SwipeAction
	users map[int64]model.Card
}

func newLedgerStub(cards ...model.Card) *ledgerStub {
	users := make(map[int64]model.Card, len(cards))
	for _, card := range cards {
		users[card.ID] = card
	}
	return &ledgerStub{rows: make(map[swipeKey]enums.SwipeAction), users: users}
}

func (s *ledgerStub) Upsert(_ context.Context, swiperID, swipedID int64, action enums.SwipeAction) (model.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[swipedID]; !ok {
		return model.Swipe{}, pgrepo.ErrSwipeTargetNotFound
	}
	s.rows[swipeKey{swiperID, swipedID}] = action
	now := time.Now().UTC()
	return model.Swipe{SwiperID: swiperID, SwipedID: swipedID, Action: action, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *ledgerStub) HasLike(_ context.Context, fromID, toID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[swipeKey{fromID, toID}] == enums.SwipeActionLike, nil
}

func (s *ledgerStub) ListMatches(_ context.Context, userID int64, _ int) ([]model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, 0)
	for key, action := range s.rows {
		if key.from != userID || action != enums.SwipeActionLike {
			continue
		}
		if s.rows[swipeKey{key.to, key.from}] == enums.SwipeActionLike {
			out = append(out, s.users[key.to])
		}
	}
	return out, nil
}

func (s *ledgerStub) ListIncomingLikes(_ context.Context, userID int64, _ int) ([]model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, 0)
	for key, action := range s.rows {
		if key.to != userID || action != enums.SwipeActionLike {
			continue
		}
		if _, answered := s.rows[swipeKey{userID, key.from}]; answered {
			continue
		}
		out = append(out, s.users[key.from])
	}
	return out, nil
}

type userStoreStub struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[int64]model.User)}
}

func (s *userStoreStub) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return model.User{}, pgrepo.ErrEmailTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return user, nil
}

func (s *userStoreStub) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return model.User{}, pgrepo.ErrUserNotFound
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
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, "", pgrepo.ErrUserNotFound
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
	if patch.Email != nil {
		user.Email = *patch.Email
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

func newMediaService(t *testing.T, maxUpload int64) *mediasvc.Service {
	t.Helper()
	storage, err := mediasvc.NewLocalStorage(t.TempDir(), "http://api.test")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	return mediasvc.NewService(storage, mediasvc.Config{MaxUploadBytes: maxUpload}, nil)
}

func newUsersService(t *testing.T, store *userStoreStub, media *mediasvc.Service) *userssvc.Service {
	t.Helper()
	return userssvc.NewService(userssvc.Dependencies{
		Store:     store,
		Passwords: credentials.NewHasher(4),
		Images:    media,
	})
}

func withIdentity(req *http.Request, userID int64) *http.Request {
	return req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: userID,
		Email:  "user@example.com",
	}))
}

type formFile struct {
	name    string
	payload []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string][]string, file *formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				t.Fatalf("write field %s: %v", key, err)
			}
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(profileImageField, file.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file.payload); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func pngPayload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `
	id,
	first_name,
	last_name,
	age,
	gender,
	email,
	password_hash,
	bio,
	interests,
	COALESCE(profile_image, ''),
	created_at,
	updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

// UserPatch carries a partial profile update. Nil fields keep the stored value.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	Age          *int
	Gender       *string
	Email        *string
	Bio          *string
	Interests    []string
	SetInterests bool
	ProfileImage *string
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	if r.pool == nil {
		return model.User{}, errPoolNil
	}
	if strings.TrimSpace(user.Email) == "" || user.PasswordHash == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}
	if user.Interests == nil {
		user.Interests = []string{}
	}

	created, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (
	first_name,
	last_name,
	age,
	gender,
	email,
	password_hash,
	bio,
	interests,
	profile_image,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NOW(), NOW())
RETURNING `+userColumns,
		user.FirstName,
		user.LastName,
		user.Age,
		string(user.Gender),
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.Interests,
		user.ProfileImage,
	))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, errPoolNil
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE LOWER(email) = LOWER($1)
`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, errPoolNil
	}
	if userID <= 0 {
		return model.User{}, ErrUserNotFound
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// UpdateProfile applies patch and returns the updated row together with the
// image reference it replaced ("" when the image was not touched). The old
// reference is read under a row lock so two concurrent swaps cannot both
// report the same predecessor.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, patch UserPatch) (model.User, string, error) {
	if r.pool == nil {
		return model.User{}, "", errPoolNil
	}
	if userID <= 0 {
		return model.User{}, "", ErrUserNotFound
	}

	var (
		updated  model.User
		oldImage string
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
SELECT COALESCE(profile_image, '')
FROM users
WHERE id = $1
FOR UPDATE
`, userID).Scan(&oldImage)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		var interests []string
		if patch.SetInterests {
			interests = patch.Interests
			if interests == nil {
				interests = []string{}
			}
		}

		updated, err = scanUser(tx.QueryRow(ctx, `
UPDATE users SET
	first_name = COALESCE($2, first_name),
	last_name = COALESCE($3, last_name),
	age = COALESCE($4, age),
	gender = COALESCE($5, gender),
	email = COALESCE($6, email),
	bio = COALESCE($7, bio),
	interests = CASE WHEN $8 THEN $9::TEXT[] ELSE interests END,
	profile_image = COALESCE($10, profile_image),
	updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns,
			userID,
			patch.FirstName,
			patch.LastName,
			patch.Age,
			patch.Gender,
			patch.Email,
			patch.Bio,
			patch.SetInterests,
			interests,
			patch.ProfileImage,
		))
		if err != nil {
			if pgErrorCode(err) == pgUniqueViolation {
				return ErrEmailTaken
			}
			return fmt.Errorf("update user profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, "", err
	}

	if patch.ProfileImage == nil || oldImage == *patch.ProfileImage {
		oldImage = ""
	}
	return updated, oldImage, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	if r.pool == nil {
		return errPoolNil
	}
	if userID <= 0 || hash == "" {
		return fmt.Errorf("invalid password update payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET password_hash = $2, updated_at = NOW()
WHERE id = $1
`, userID, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListImageRefs returns every stored profile image reference.
func (r *UserRepo) ListImageRefs(ctx context.Context) (map[string]struct{}, error) {
	if r.pool == nil {
		return nil, errPoolNil
	}

	rows, err := r.pool.Query(ctx, `
SELECT profile_image
FROM users
WHERE profile_image IS NOT NULL AND profile_image <> ''
`)
	if err != nil {
		return nil, fmt.Errorf("list profile image refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan profile image ref: %w", err)
		}
		refs[ref] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile image refs: %w", err)
	}

	return refs, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user   model.User
		gender string
	)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Age,
		&gender,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.Interests,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Gender = enums.Gender(gender)
	if user.Interests == nil {
		user.Interests = []string{}
	}
	return user, nil
}

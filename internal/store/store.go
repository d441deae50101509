package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oscar066/kiduka-cli/internal/model"
)

// The session token, cached user, and soil draft each live in a single-row
// slot. Writes are independently atomic per slot; there is deliberately no
// cross-slot transaction, so a crash between SaveToken and SaveUser leaves
// a token without a user and the session manager re-fetches the user.

func SaveToken(db *sql.DB, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	_, err := db.Exec(`
INSERT INTO session(id, token, saved_at) VALUES(1, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET token=excluded.token, saved_at=excluded.saved_at
`, token)
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func Token(db *sql.DB) (string, bool, error) {
	var token string
	err := db.QueryRow(`SELECT token FROM session WHERE id = 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session token: %w", err)
	}
	return token, token != "", nil
}

func DeleteToken(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

func SaveUser(db *sql.DB, u model.User) error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := db.Exec(`
INSERT INTO cached_user(id, user_id, username, email, full_name, is_active, is_verified, created_at, cached_at)
VALUES(1, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  user_id=excluded.user_id,
  username=excluded.username,
  email=excluded.email,
  full_name=excluded.full_name,
  is_active=excluded.is_active,
  is_verified=excluded.is_verified,
  created_at=excluded.created_at,
  cached_at=excluded.cached_at
`, u.ID, u.Username, u.Email, nullString(u.FullName), u.IsActive, u.IsVerified, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("save cached user: %w", err)
	}
	return nil
}

func CachedUser(db *sql.DB) (*model.User, bool, error) {
	var (
		u        model.User
		fullName sql.NullString
	)
	err := db.QueryRow(`
SELECT user_id, username, email, full_name, is_active, is_verified, created_at
FROM cached_user WHERE id = 1
`).Scan(&u.ID, &u.Username, &u.Email, &fullName, &u.IsActive, &u.IsVerified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached user: %w", err)
	}
	u.FullName = fullName.String
	return &u, true, nil
}

func DeleteUser(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM cached_user WHERE id = 1`); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}
	return nil
}

// ClearSession removes both the token and the cached user. Used by logout
// and by the 401 invalidation hook; safe to call repeatedly.
func ClearSession(db *sql.DB) error {
	if err := DeleteToken(db); err != nil {
		return err
	}
	return DeleteUser(db)
}

func SaveDraft(db *sql.DB, d model.SoilDraft) error {
	_, err := db.Exec(`
INSERT INTO soil_draft(id, texture, ph, nitrogen, phosphorus, potassium, organic_matter,
  calcium, magnesium, copper, iron, zinc, latitude, longitude, updated_at)
VALUES(1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  texture=excluded.texture,
  ph=excluded.ph,
  nitrogen=excluded.nitrogen,
  phosphorus=excluded.phosphorus,
  potassium=excluded.potassium,
  organic_matter=excluded.organic_matter,
  calcium=excluded.calcium,
  magnesium=excluded.magnesium,
  copper=excluded.copper,
  iron=excluded.iron,
  zinc=excluded.zinc,
  latitude=excluded.latitude,
  longitude=excluded.longitude,
  updated_at=excluded.updated_at
`, d.Texture, d.PH, d.Nitrogen, d.Phosphorus, d.Potassium, d.OrganicMatter,
		d.Calcium, d.Magnesium, d.Copper, d.Iron, d.Zinc, d.Latitude, d.Longitude)
	if err != nil {
		return fmt.Errorf("save soil draft: %w", err)
	}
	return nil
}

func Draft(db *sql.DB) (model.SoilDraft, bool, error) {
	var (
		d            model.SoilDraft
		texture      sql.NullString
		nums         [12]sql.NullFloat64
		updatedAtRaw string
	)
	err := db.QueryRow(`
SELECT texture, ph, nitrogen, phosphorus, potassium, organic_matter,
  calcium, magnesium, copper, iron, zinc, latitude, longitude, updated_at
FROM soil_draft WHERE id = 1
`).Scan(&texture, &nums[0], &nums[1], &nums[2], &nums[3], &nums[4],
		&nums[5], &nums[6], &nums[7], &nums[8], &nums[9], &nums[10], &nums[11], &updatedAtRaw)
	if err == sql.ErrNoRows {
		return model.SoilDraft{}, false, nil
	}
	if err != nil {
		return model.SoilDraft{}, false, fmt.Errorf("read soil draft: %w", err)
	}
	// sqlite's CURRENT_TIMESTAMP is "2006-01-02 15:04:05" in UTC.
	if t, perr := time.Parse("2006-01-02 15:04:05", updatedAtRaw); perr == nil {
		d.UpdatedAt = t.UTC()
	}
	if texture.Valid {
		d.Texture = &texture.String
	}
	fields := []**float64{
		&d.PH, &d.Nitrogen, &d.Phosphorus, &d.Potassium, &d.OrganicMatter,
		&d.Calcium, &d.Magnesium, &d.Copper, &d.Iron, &d.Zinc, &d.Latitude, &d.Longitude,
	}
	for i, field := range fields {
		if nums[i].Valid {
			v := nums[i].Float64
			*field = &v
		}
	}
	return d, true, nil
}

func ClearDraft(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM soil_draft WHERE id = 1`); err != nil {
		return fmt.Errorf("clear soil draft: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

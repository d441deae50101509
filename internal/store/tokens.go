package store

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// DBTokens adapts the session slot to the API client's TokenSource. Read
// failures fail open: the request goes out unauthenticated and the server
// decides, which matches a logged-out state rather than a hard error.
type DBTokens struct {
	DB     *sql.DB
	Logger zerolog.Logger
}

func (t DBTokens) Token() (string, bool) {
	token, ok, err := Token(t.DB)
	if err != nil {
		t.Logger.Warn().Err(err).Msg("session token read failed, treating as absent")
		return "", false
	}
	return token, ok
}

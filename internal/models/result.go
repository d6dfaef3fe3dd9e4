package models

import "time"

// RetrievalResult is the successful outcome of one dataset retrieval. The
// access token and metering point ids are handed back so a follow-up chunked
// call can skip the token exchange and listing steps.
type RetrievalResult struct {
	FilePaths        []string
	AccessToken      string
	MeteringPointIDs []string
}

// User is one registered account from the metadata source. ID is the
// correlation id joining output files back to the account without storing the
// credential in them.
type User struct {
	ID           string
	RefreshToken string
	Email        string
	RegisteredAt time.Time
}

// CorrelationID returns the user's explicit id, or derives one from the tail
// of the refresh token the way the registration form did.
func (u User) CorrelationID() string {
	if u.ID != "" {
		return u.ID
	}
	return DeriveCorrelationID(u.RefreshToken)
}

// DeriveCorrelationID builds a correlation id from the last ten characters of
// a refresh token.
func DeriveCorrelationID(refreshToken string) string {
	if len(refreshToken) <= 10 {
		return refreshToken
	}
	return refreshToken[len(refreshToken)-10:]
}

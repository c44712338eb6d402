package dto

import "time"

// SessionResponse mirrors the identity service session body.
type SessionResponse struct {
	PlatformType   string    `json:"platformType"`
	Ticket         string    `json:"ticket"`
	ProfileID      string    `json:"profileId"`
	UserID         string    `json:"userId"`
	NameOnPlatform string    `json:"nameOnPlatform"`
	SessionID      string    `json:"sessionId"`
	Expiration     time.Time `json:"expiration"`
}

// TokenPairResponse is returned by both Nadeo token endpoints.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AudienceRequest is the body of the audience token call.
type AudienceRequest struct {
	Audience string `json:"audience"`
}

// LeaderboardTop is one zone of a leaderboard top.
type LeaderboardTop struct {
	ZoneID   string        `json:"zoneId"`
	ZoneName string        `json:"zoneName"`
	Top      []LeaderEntry `json:"top"`
}

// LeaderEntry is a ranked record.
type LeaderEntry struct {
	AccountID string `json:"accountId"`
	ZoneID    string `json:"zoneId"`
	ZoneName  string `json:"zoneName"`
	Position  int    `json:"position"`
	Score     int    `json:"score"`
}

// LeaderboardResponse is the body of the leaderboard top call.
type LeaderboardResponse struct {
	GroupUID string           `json:"groupUid"`
	MapUID   string           `json:"mapUid"`
	Tops     []LeaderboardTop `json:"tops"`
}

package domain

import "time"

// Stage identifies one step of the token chain.
type Stage string

const (
	StageTicket Stage = "ticket"
	StageCore   Stage = "core"
	StageLive   Stage = "live"
	StageVerify Stage = "verify"
)

// Audience selects the Nadeo service family a level 2 token is valid for.
type Audience string

const (
	AudienceCore Audience = "NadeoServices"
	AudienceLive Audience = "NadeoLiveServices"
	AudienceClub Audience = "NadeoClubServices"
)

// Known reports whether a is one of the documented audiences.
func (a Audience) Known() bool {
	switch a {
	case AudienceCore, AudienceLive, AudienceClub:
		return true
	}
	return false
}

// StagePayload is the raw JSON body a stage returned.
type StagePayload struct {
	Stage Stage
	Body  []byte
}

// TokenInfo describes a token without exposing its value.
type TokenInfo struct {
	Length    int
	ExpiresAt *time.Time
}

package domain

import "time"

// RunState tracks progress through the chain.
type RunState string

const (
	RunStateStart             RunState = "START"
	RunStateHaveTicket        RunState = "HAVE_TICKET"
	RunStateHaveAccessToken   RunState = "HAVE_ACCESS_TOKEN"
	RunStateHaveAudienceToken RunState = "HAVE_AUDIENCE_TOKEN"
	RunStateVerified          RunState = "VERIFIED"
	RunStateAborted           RunState = "ABORTED"
)

// StageOutcome values.
const (
	OutcomeSucceeded = "SUCCEEDED"
	OutcomeFailed    = "FAILED"
)

// StageResult records how a single stage ended.
type StageResult struct {
	RunID      string
	Stage      Stage
	Outcome    string
	HTTPStatus int
	Duration   time.Duration
	ErrorCode  string
	// Persisted is true only when every configured sink stored the payload.
	Persisted bool
	CreatedAt time.Time
}

// RunResult summarizes a full run.
type RunResult struct {
	RunID         string
	State         RunState
	Ticket        string
	AccessToken   string
	AudienceToken string
	Stages        []StageResult
}

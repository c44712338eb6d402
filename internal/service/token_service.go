package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/internal/events"
	"github.com/spec-kit/tokenchain/internal/observability"
	"github.com/spec-kit/tokenchain/internal/persistence"
	"github.com/spec-kit/tokenchain/pkg/util"
)

// ChainClient performs the upstream calls. Implemented by client.Client.
type ChainClient interface {
	RequestTicket(ctx context.Context, authorization, identifier, usageReason string) (string, []byte, error)
	RequestCoreToken(ctx context.Context, ticket string) (string, []byte, error)
	RequestAudienceToken(ctx context.Context, accessToken string, audience domain.Audience) (string, []byte, error)
	VerifyToken(ctx context.Context, audienceToken string) (bool, error)
}

// TokenChainDependencies encapsulates collaborators of the service.
type TokenChainDependencies struct {
	Client     ChainClient
	Sink       persistence.Sink
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// TokenChainService runs the ticket -> core -> live -> verify chain.
type TokenChainService struct {
	client     ChainClient
	sink       persistence.Sink
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewTokenChainService builds the service.
func NewTokenChainService(deps TokenChainDependencies) *TokenChainService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &TokenChainService{
		client:     deps.Client,
		sink:       deps.Sink,
		dispatcher: dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// stage maps the previous token to the next one plus the payload to persist.
type stage struct {
	name    domain.Stage
	reached domain.RunState
	persist bool
	run     func(ctx context.Context, input string) (string, []byte, error)
}

func (s *TokenChainService) pipeline(cfg config.Config) []stage {
	cred := cfg.Credential
	audience := domain.Audience(cred.Audience)

	return []stage{
		{
			name:    domain.StageTicket,
			reached: domain.RunStateHaveTicket,
			persist: true,
			run: func(ctx context.Context, authorization string) (string, []byte, error) {
				return s.client.RequestTicket(ctx, authorization, cred.Identifier, cred.UsageReason)
			},
		},
		{
			name:    domain.StageCore,
			reached: domain.RunStateHaveAccessToken,
			persist: true,
			run:     s.client.RequestCoreToken,
		},
		{
			name:    domain.StageLive,
			reached: domain.RunStateHaveAudienceToken,
			persist: true,
			run: func(ctx context.Context, accessToken string) (string, []byte, error) {
				return s.client.RequestAudienceToken(ctx, accessToken, audience)
			},
		},
		{
			name:    domain.StageVerify,
			reached: domain.RunStateVerified,
			run: func(ctx context.Context, audienceToken string) (string, []byte, error) {
				if _, err := s.client.VerifyToken(ctx, audienceToken); err != nil {
					return "", nil, err
				}
				return audienceToken, nil, nil
			},
		},
	}
}

// Run validates cfg and executes every stage in order. The first failing
// stage aborts the run; its error is returned alongside the partial result.
// Sink failures are logged and never abort.
func (s *TokenChainService) Run(ctx context.Context, cfg config.Config) (*domain.RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &domain.RunResult{
		RunID: uuid.NewString(),
		State: domain.RunStateStart,
	}
	logger := s.logger.With(zap.String("run_id", result.RunID))

	if audience := domain.Audience(cfg.Credential.Audience); !audience.Known() {
		logger.Warn("requesting unknown audience", zap.String("audience", string(audience)))
	}

	input := auth.EncodeCredential(cfg.Credential.Identifier, cfg.Credential.Secret)
	for _, st := range s.pipeline(cfg) {
		stageLogger := logger.With(zap.String("stage", string(st.name)))
		stageLogger.Info("starting stage")

		started := s.now()
		output, body, err := st.run(ctx, input)
		stageResult := domain.StageResult{
			RunID:     result.RunID,
			Stage:     st.name,
			Duration:  s.now().Sub(started),
			CreatedAt: started,
		}

		if err != nil {
			de := util.ToDomainError(err)
			stageResult.Outcome = domain.OutcomeFailed
			stageResult.HTTPStatus = de.HTTPStatus
			stageResult.ErrorCode = de.Code
			result.Stages = append(result.Stages, stageResult)
			result.State = domain.RunStateAborted

			s.metrics.RecordStage(string(st.name), de.HTTPStatus, stageResult.Duration)
			s.metrics.RecordError(string(st.name), de.Code)
			stageLogger.Error("stage failed",
				zap.String("code", de.Code),
				zap.Int("status", de.HTTPStatus),
				zap.Error(err),
			)
			s.publish(ctx, logger, events.EventStageFailed, result.RunID, events.StagePayload{Result: stageResult})
			s.publish(ctx, logger, events.EventRunFinished, result.RunID, events.RunFinishedPayload{State: result.State, ErrorCode: de.Code})
			return result, err
		}

		stageResult.Outcome = domain.OutcomeSucceeded
		stageResult.HTTPStatus = 200
		if st.persist {
			stageResult.Persisted = s.save(ctx, stageLogger, domain.StagePayload{Stage: st.name, Body: body})
		}
		result.Stages = append(result.Stages, stageResult)
		result.State = st.reached
		s.assign(result, st.name, output)

		s.metrics.RecordStage(string(st.name), stageResult.HTTPStatus, stageResult.Duration)
		fields := []zap.Field{zap.Duration("duration", stageResult.Duration)}
		if st.persist {
			info := auth.InspectToken(output)
			fields = append(fields, zap.Int("token_length", info.Length))
			if info.ExpiresAt != nil {
				fields = append(fields, zap.Time("token_expires_at", *info.ExpiresAt))
			}
		}
		stageLogger.Info("stage completed", fields...)
		s.publish(ctx, logger, events.EventStageCompleted, result.RunID, events.StagePayload{Result: stageResult})

		input = output
	}

	logger.Info("token works", zap.String("state", string(result.State)))
	s.publish(ctx, logger, events.EventRunFinished, result.RunID, events.RunFinishedPayload{State: result.State})
	return result, nil
}

func (s *TokenChainService) save(ctx context.Context, logger *zap.Logger, payload domain.StagePayload) bool {
	if s.sink == nil {
		return false
	}
	if err := s.sink.Save(ctx, payload); err != nil {
		perr := util.NewPersistenceError(string(payload.Stage), err)
		s.metrics.RecordError(string(payload.Stage), util.CodePersistenceFailed)
		logger.Warn("could not persist payload; continuing", zap.Error(perr))
		return false
	}
	return true
}

func (s *TokenChainService) assign(result *domain.RunResult, name domain.Stage, token string) {
	switch name {
	case domain.StageTicket:
		result.Ticket = token
	case domain.StageCore:
		result.AccessToken = token
	case domain.StageLive:
		result.AudienceToken = token
	}
}

func (s *TokenChainService) publish(ctx context.Context, logger *zap.Logger, eventType events.EventType, runID string, payload interface{}) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

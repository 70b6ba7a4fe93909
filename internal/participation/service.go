// Package participation orchestrates the participant lifecycle: it loads the
// durable record, gathers the facts each action needs, runs the state machine
// and persists the result before telling anyone about it.
package participation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contribfest/participation/internal/activity"
	"github.com/contribfest/participation/internal/cache"
	"github.com/contribfest/participation/internal/campaign"
	"github.com/contribfest/participation/internal/domain"
	apperrors "github.com/contribfest/participation/internal/errors"
	"github.com/contribfest/participation/internal/lifecycle"
	"github.com/contribfest/participation/internal/notify"
	"github.com/contribfest/participation/internal/repository"
	"github.com/contribfest/participation/internal/segment"
	"github.com/contribfest/participation/pkg/metrics"
)

const (
	opCreate = "create"

	statusOK      = "ok"
	statusRefused = "refused"
	statusError   = "error"
)

var validate = validator.New()

// Outcome reports what a transition attempt did to the participant. When the
// attempt is refused, Errors carries every failed check keyed by field, the
// participant is unchanged and To equals From.
type Outcome struct {
	Participant *domain.Participant
	From        domain.State
	To          domain.State
	Errors      lifecycle.Errors
}

// Applied reports whether the attempt actually moved the participant.
func (o *Outcome) Applied() bool {
	return o != nil && !o.Errors.Any()
}

// Service provides business operations over participants.
type Service struct {
	repo       repository.ParticipantRepository
	cache      *cache.Cache
	counter    activity.Counter
	calendar   *campaign.Calendar
	notifier   notify.Notifier
	segments   segment.Updater
	errHandler *apperrors.Handler
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
	now        func() time.Time
}

// NewService constructs a new Service instance.
func NewService(
	repo repository.ParticipantRepository,
	cache *cache.Cache,
	counter activity.Counter,
	calendar *campaign.Calendar,
	notifier notify.Notifier,
	segments segment.Updater,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		counter:    counter,
		calendar:   calendar,
		notifier:   notifier,
		segments:   segments,
		errHandler: errHandler,
		breaker:    apperrors.NewCircuitBreaker(),
		log:        log,
		now:        time.Now,
	}
}

// Create stores a brand new participant in the "new" state. Email is optional
// at this point; when present it must at least look like an address.
func (s *Service) Create(ctx context.Context, email string, termsAccepted bool) (*domain.Participant, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			metrics.RecordOperation(opCreate, statusError)
			return nil, apperrors.NewValidationError("email format is invalid")
		}
	}

	now := s.now().UTC()
	participant := &domain.Participant{
		Email:         email,
		TermsAccepted: termsAccepted,
		State:         domain.StateNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, participant); err != nil {
		metrics.RecordOperation(opCreate, statusError)
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, err
		}

		s.logError("create", 0, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	s.storeInCache(ctx, participant)
	metrics.RecordOperation(opCreate, statusOK)

	return participant, nil
}

// Get returns the participant by id, serving from cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Participant, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn("participant cache read failed",
			slog.Int64("participant_id", id),
			slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	participant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, err
		}

		s.logError("get", id, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	s.storeInCache(ctx, participant)

	return participant, nil
}

// Register moves a new participant into the registered state.
func (s *Service) Register(ctx context.Context, id int64) (*Outcome, error) {
	return s.apply(ctx, id, lifecycle.ActionRegister)
}

// Wait promotes a registered participant who has enough eligible pull
// requests into the waiting room.
func (s *Service) Wait(ctx context.Context, id int64) (*Outcome, error) {
	return s.apply(ctx, id, lifecycle.ActionWait)
}

// Complete finishes the lifecycle for a waiting participant who held enough
// eligible pull requests through the waiting period.
func (s *Service) Complete(ctx context.Context, id int64) (*Outcome, error) {
	return s.apply(ctx, id, lifecycle.ActionComplete)
}

// Ineligible demotes a waiting participant whose eligible pull requests
// dropped below the qualifying bar.
func (s *Service) Ineligible(ctx context.Context, id int64) (*Outcome, error) {
	return s.apply(ctx, id, lifecycle.ActionIneligible)
}

// Incomplete closes out a registered participant once the campaign is over.
func (s *Service) Incomplete(ctx context.Context, id int64) (*Outcome, error) {
	return s.apply(ctx, id, lifecycle.ActionIncomplete)
}

// CountByState reports how many participants sit in each lifecycle state.
func (s *Service) CountByState(ctx context.Context) (map[domain.State]int, error) {
	counts, err := s.repo.CountByState(ctx)
	if err != nil {
		s.logError("count_by_state", 0, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	return counts, nil
}

// apply runs one lifecycle action end to end: load, gather facts, run the
// machine, persist, then fan out to collaborators. Transitions always read
// the durable row, never the cache.
func (s *Service) apply(ctx context.Context, id int64, action lifecycle.Action) (*Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordTransitionDuration(string(action), time.Since(start))
	}()

	participant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		metrics.RecordOperation(string(action), statusError)
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, err
		}

		s.logError(string(action)+".find", id, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	if !participant.State.Valid() {
		metrics.RecordOperation(string(action), statusError)
		return nil, apperrors.NewStateError(
			fmt.Sprintf("participant %d holds unknown state %q", id, participant.State))
	}

	facts, err := s.gatherFacts(ctx, participant, action)
	if err != nil {
		metrics.RecordOperation(string(action), statusError)
		return nil, err
	}

	from := participant.State
	if errs := lifecycle.Apply(participant, action, facts); errs.Any() {
		for _, key := range errs.Keys() {
			metrics.RecordTransitionFailure(string(action), key)
		}
		metrics.RecordOperation(string(action), statusRefused)

		s.log.Info("transition refused",
			slog.String("action", string(action)),
			slog.Int64("participant_id", id),
			slog.String("state", string(from)),
			slog.Any("failed_checks", errs.Keys()))

		return &Outcome{Participant: participant, From: from, To: from, Errors: errs}, nil
	}

	if err := s.persist(ctx, participant); err != nil {
		metrics.RecordOperation(string(action), statusError)
		s.logError(string(action)+".persist", id, err)
		return nil, err
	}
	participant.UpdatedAt = facts.Now.UTC()

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("participant cache invalidation failed",
			slog.Int64("participant_id", id),
			slog.Any("error", err))
	}

	s.fanOut(ctx, participant, action, from, facts.Now)

	metrics.RecordOperation(string(action), statusOK)

	return &Outcome{Participant: participant, From: from, To: participant.State}, nil
}

// gatherFacts assembles the inputs guards need for the given action. The
// eligible contribution count lives in an external system, so it is fetched
// only for the actions whose guards read it.
func (s *Service) gatherFacts(ctx context.Context, p *domain.Participant, action lifecycle.Action) (lifecycle.Facts, error) {
	now := s.now()
	facts := lifecycle.Facts{
		Now:           now,
		CampaignEnded: s.calendar.Current().Ended(now),
	}

	switch action {
	case lifecycle.ActionWait, lifecycle.ActionComplete, lifecycle.ActionIneligible:
		var count int
		err := s.breaker.Call(func() error {
			var countErr error
			count, countErr = s.counter.EligibleCount(ctx, p.ID)
			return countErr
		})
		if err != nil {
			s.logError(string(action)+".eligible_count", p.ID, err)
			return lifecycle.Facts{}, apperrors.NewExternalAPIError("activity counter", err)
		}

		facts.EligibleActivityCount = count
	}

	return facts, nil
}

// persist writes the post-transition record. The state update is idempotent,
// so transient database failures are retried.
func (s *Service) persist(ctx context.Context, p *domain.Participant) error {
	return apperrors.WithRetry(ctx, func() error {
		if err := s.repo.UpdateState(ctx, p.ID, p.State, p.WaitingSince); err != nil {
			if errors.Is(err, repository.ErrParticipantNotFound) {
				return err
			}

			return apperrors.NewDatabaseError(err)
		}

		return nil
	})
}

// fanOut tells the collaborators about a transition that already happened.
// Their failures are retried, reported and counted but never surface to the
// caller: the participant record is the source of truth and it is already
// durable.
func (s *Service) fanOut(ctx context.Context, p *domain.Participant, action lifecycle.Action, from domain.State, occurredAt time.Time) {
	event := notify.NewStateChangeEvent(p.ID, action, from, p.State, occurredAt)
	s.tellCollaborator(ctx, "notifier", func() error {
		return s.notifier.NotifyStateChange(ctx, event)
	})

	s.tellCollaborator(ctx, "segments", func() error {
		return s.segments.Sync(ctx, p.ID, from, p.State)
	})
}

// tellCollaborator invokes one collaborator with retries. Exhausted retries
// escalate to high severity so the failure reaches the error reporter.
func (s *Service) tellCollaborator(ctx context.Context, name string, call func() error) {
	err := apperrors.WithRetry(ctx, func() error {
		if callErr := call(); callErr != nil {
			return apperrors.NewExternalAPIError(name, callErr)
		}

		return nil
	})
	if err == nil {
		return
	}

	metrics.RecordCollaboratorFailure(name)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		err = appErr.WithSeverity(apperrors.SeverityHigh)
	}
	s.errHandler.Handle(ctx, err)
}

func (s *Service) storeInCache(ctx context.Context, p *domain.Participant) {
	if err := s.cache.Set(ctx, p); err != nil {
		s.log.Warn("participant cache write failed",
			slog.Int64("participant_id", p.ID),
			slog.Any("error", err))
	}
}

func (s *Service) logError(operation string, participantID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("participation service operation failed",
		slog.String("operation", operation),
		slog.Int64("participant_id", participantID),
		slog.Any("error", err),
	)
}

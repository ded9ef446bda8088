package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/clients/oracle"
	"github.com/starbound-health/navigator-backend/internal/clients/redis"
	"github.com/starbound-health/navigator-backend/internal/decide"
	"github.com/starbound-health/navigator-backend/internal/extract"
	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/profile"
	eventrepo "github.com/starbound-health/navigator-backend/internal/repos/event"
	factorrepo "github.com/starbound-health/navigator-backend/internal/repos/factor"
	followuprepo "github.com/starbound-health/navigator-backend/internal/repos/followup"
	insightrepo "github.com/starbound-health/navigator-backend/internal/repos/insight"
	profilestaterepo "github.com/starbound-health/navigator-backend/internal/repos/profilestate"
	snapshotrepo "github.com/starbound-health/navigator-backend/internal/repos/snapshot"
	"github.com/starbound-health/navigator-backend/internal/respond"
	"github.com/starbound-health/navigator-backend/internal/sse"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
	"github.com/starbound-health/navigator-backend/internal/types"
)

const (
	userLockTTL     = 15 * time.Second
	lockRetryDelay  = 100 * time.Millisecond
	lockRetryBudget = 3 * time.Second
	versionRetryMax = 3
)

// SubmitRequest is one raw submission from the UI.
type SubmitRequest struct {
	Text          string            `json:"text"`
	Intent        taxonomy.Intent   `json:"intent"`
	SaveMode      taxonomy.SaveMode `json:"save_mode"`
	ParentEventID *uuid.UUID        `json:"parent_event_id,omitempty"`
	FollowUpID    *uuid.UUID        `json:"followup_id,omitempty"`
}

// SubmitResult is everything the UI needs to render the outcome of one
// submission, plus the audit snapshot id.
type SubmitResult struct {
	EventID  uuid.UUID          `json:"event_id"`
	Snapshot decide.Snapshot    `json:"snapshot"`
	Response respond.Model      `json:"response"`
	Rejected []extract.Rejected `json:"rejected,omitempty"`
}

// AnswerItem is one structured instrument answer: a factor proposed
// directly by the UI rather than extracted from free text.
type AnswerItem struct {
	Code          taxonomy.FactorCode    `json:"code"`
	Type          taxonomy.FactorType    `json:"type"`
	Value         any                    `json:"value"`
	TimeHorizon   taxonomy.TimeHorizon   `json:"time_horizon,omitempty"`
	Modifiability taxonomy.Modifiability `json:"modifiability,omitempty"`
}

type AnswersRequest struct {
	Answers       []AnswerItem `json:"answers"`
	ParentEventID *uuid.UUID   `json:"parent_event_id,omitempty"`
	FollowUpID    *uuid.UUID   `json:"followup_id,omitempty"`
}

type AnswersResult struct {
	EventID  uuid.UUID          `json:"event_id"`
	Accepted int                `json:"accepted"`
	Rejected []extract.Rejected `json:"rejected,omitempty"`
}

type IngestService interface {
	SubmitEvent(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*SubmitResult, error)
	// SubmitAnswers ingests structured instrument answers. Every answer is
	// validated against the vocabulary; rejected ones are reported back,
	// never coerced.
	SubmitAnswers(ctx context.Context, userID uuid.UUID, req AnswersRequest) (*AnswersResult, error)
}

type ingestService struct {
	db          *gorm.DB
	log         *logger.Logger
	eventRepo   eventrepo.EventRepo
	factorRepo  factorrepo.FactorRepo
	stateRepo   profilestaterepo.ProfileStateRepo
	fuRepo      followuprepo.FollowUpRepo
	snapRepo    snapshotrepo.SnapshotRepo
	insightRepo insightrepo.InsightRepo
	oracle      oracle.Client
	coord       redis.Coordinator
	registry    *taxonomy.Registry
	hub         *sse.SSEHub
	bus         redis.SSEBus
}

func NewIngestService(
	db *gorm.DB,
	log *logger.Logger,
	eventRepo eventrepo.EventRepo,
	factorRepo factorrepo.FactorRepo,
	stateRepo profilestaterepo.ProfileStateRepo,
	fuRepo followuprepo.FollowUpRepo,
	snapRepo snapshotrepo.SnapshotRepo,
	insightRepo insightrepo.InsightRepo,
	oracleClient oracle.Client,
	coord redis.Coordinator,
	registry *taxonomy.Registry,
	hub *sse.SSEHub,
	bus redis.SSEBus,
) IngestService {
	serviceLog := log.With("service", "IngestService")
	return &ingestService{
		db:          db,
		log:         serviceLog,
		eventRepo:   eventRepo,
		factorRepo:  factorRepo,
		stateRepo:   stateRepo,
		fuRepo:      fuRepo,
		snapRepo:    snapRepo,
		insightRepo: insightRepo,
		oracle:      oracleClient,
		coord:       coord,
		registry:    registry,
		hub:         hub,
		bus:         bus,
	}
}

// SubmitEvent runs the full pipeline for one submission: classify,
// extract, fold, decide, persist, respond. Work per user is serialized by
// the coordinator lock; a newer submission supersedes any still in flight.
func (is *ingestService) SubmitEvent(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*SubmitResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty submission", apperrors.ErrInvalidArgument)
	}
	if req.Intent == "" {
		req.Intent = taxonomy.IntentJournal
	}
	if req.SaveMode == "" {
		req.SaveMode = taxonomy.SaveJournal
	}

	now := time.Now().UTC()
	event := &types.Event{
		ID:            uuid.New(),
		UserID:        userID,
		ParentEventID: req.ParentEventID,
		Intent:        req.Intent,
		SaveMode:      req.SaveMode,
		CreatedAt:     now,
	}
	if req.SaveMode == taxonomy.SaveJournal {
		event.RawText = &text
	}

	if _, err := is.eventRepo.Create(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if err := is.coord.StampLatestEvent(ctx, userID, event.ID); err != nil {
		is.log.Warn("failed to stamp latest event", "user_id", userID, "error", err)
	}

	// Classification. The local safety scan runs unconditionally; the
	// oracle only ever refines non-safety tags and its failure degrades
	// to local heuristics instead of failing the submission.
	scan := classify.ScanForDanger(text, false)
	oracleUnavailable := false
	var oracleTags []classify.DomainTag
	var oracleCandidates []extract.Candidate

	oracleResp, err := is.oracle.Classify(ctx, oracle.ClassifyRequest{
		EventID: event.ID,
		Text:    text,
	})
	if err != nil {
		oracleUnavailable = true
		is.log.Warn("oracle unavailable, using local classification", "event_id", event.ID, "error", err)
	} else {
		oracleTags = oracleResp.Tags
		oracleCandidates = oracleResp.Candidates
	}

	classification := classify.Classify(text, oracleTags, scan.Triggered)
	extracted := extract.Extract(classification, text, oracleCandidates, is.registry)
	for _, rej := range extracted.Rejected {
		is.log.Warn("quarantined factor candidate", "event_id", event.ID, "code", rej.Code, "reason", rej.Reason)
	}

	// Per-user serialization. One pipeline run at a time per user.
	release, err := is.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Last submission wins: if a newer event was accepted while this one
	// waited for the lock, its profile work is discarded.
	latest, err := is.coord.IsLatestEvent(ctx, userID, event.ID)
	if err != nil {
		is.log.Warn("latest-event check failed, proceeding", "event_id", event.ID, "error", err)
	} else if !latest {
		return nil, apperrors.ErrSuperseded
	}

	prof, snap, err := is.foldAndDecide(ctx, userID, event, classification, extracted, oracleUnavailable, now)
	if err != nil {
		return nil, err
	}

	if req.FollowUpID != nil {
		if err := is.fuRepo.MarkResolved(ctx, nil, *req.FollowUpID, now); err != nil {
			is.log.Warn("failed to resolve follow-up", "followup_id", *req.FollowUpID, "error", err)
		}
	}

	model := is.buildResponse(ctx, userID, event, text, classification, extracted, *snap, prof)

	result := &SubmitResult{
		EventID:  event.ID,
		Snapshot: *snap,
		Response: model,
		Rejected: extracted.Rejected,
	}
	is.publish(ctx, userID, sse.SSEEventResponseReady, result)
	return result, nil
}

// instrumentConfidence is assigned to answers the user entered directly;
// they carry no extraction uncertainty.
const instrumentConfidence = 0.9

func (is *ingestService) SubmitAnswers(ctx context.Context, userID uuid.UUID, req AnswersRequest) (*AnswersResult, error) {
	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", apperrors.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	event := &types.Event{
		ID:            uuid.New(),
		UserID:        userID,
		ParentEventID: req.ParentEventID,
		Intent:        taxonomy.IntentFollowUp,
		SaveMode:      taxonomy.SaveFactorsOnly,
		CreatedAt:     now,
	}
	if req.ParentEventID == nil {
		event.Intent = taxonomy.IntentLogOnly
	}
	if _, err := is.eventRepo.Create(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if err := is.coord.StampLatestEvent(ctx, userID, event.ID); err != nil {
		is.log.Warn("failed to stamp latest event", "user_id", userID, "error", err)
	}

	var rejected []extract.Rejected
	newFactors := make([]*types.Factor, 0, len(req.Answers))
	for _, a := range req.Answers {
		if err := is.registry.ValidateCode(a.Code, a.Type); err != nil {
			rejected = append(rejected, extract.Rejected{Code: string(a.Code), Reason: err.Error()})
			continue
		}
		horizon := a.TimeHorizon
		if !horizon.Valid() {
			horizon = taxonomy.HorizonUnknown
		}
		modifiability := a.Modifiability
		if !modifiability.Valid() {
			modifiability = taxonomy.ModifiabilityUnknown
		}
		value, err := json.Marshal(a.Value)
		if err != nil {
			value = []byte("null")
		}
		newFactors = append(newFactors, &types.Factor{
			ID:            uuid.New(),
			UserID:        userID,
			Domain:        a.Code.Domain(),
			Type:          a.Type,
			Code:          a.Code,
			Value:         datatypes.JSON(value),
			Confidence:    instrumentConfidence,
			TimeHorizon:   horizon,
			Modifiability: modifiability,
			SourceEventID: event.ID,
			CreatedAt:     now,
		})
	}
	for _, rej := range rejected {
		is.log.Warn("rejected instrument answer", "event_id", event.ID, "code", rej.Code, "reason", rej.Reason)
	}

	if len(newFactors) > 0 {
		release, err := is.acquireLock(ctx, userID)
		if err != nil {
			return nil, err
		}
		defer release()

		latest, err := is.coord.IsLatestEvent(ctx, userID, event.ID)
		if err != nil {
			is.log.Warn("latest-event check failed, proceeding", "event_id", event.ID, "error", err)
		} else if !latest {
			return nil, apperrors.ErrSuperseded
		}

		var applyErr error
		for attempt := 0; attempt < versionRetryMax; attempt++ {
			_, applyErr = is.applyFactors(ctx, userID, event.ID, newFactors)
			if applyErr == nil || !errors.Is(applyErr, apperrors.ErrConflict) {
				break
			}
		}
		if applyErr != nil {
			return nil, applyErr
		}
	}

	if req.FollowUpID != nil {
		if err := is.fuRepo.MarkResolved(ctx, nil, *req.FollowUpID, now); err != nil {
			is.log.Warn("failed to resolve follow-up", "followup_id", *req.FollowUpID, "error", err)
		}
	}

	return &AnswersResult{
		EventID:  event.ID,
		Accepted: len(newFactors),
		Rejected: rejected,
	}, nil
}

func (is *ingestService) acquireLock(ctx context.Context, userID uuid.UUID) (func(), error) {
	deadline := time.Now().Add(lockRetryBudget)
	for {
		release, ok, err := is.coord.AcquireUserLock(ctx, userID, userLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if ok {
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: another submission is still processing", apperrors.ErrConflict)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

// foldAndDecide persists the committed factors, folds them into the
// profile under optimistic versioning and produces the decision snapshot.
func (is *ingestService) foldAndDecide(
	ctx context.Context,
	userID uuid.UUID,
	event *types.Event,
	classification classify.Result,
	extracted extract.Payload,
	oracleUnavailable bool,
	now time.Time,
) (*profile.Profile, *decide.Snapshot, error) {
	newFactors := make([]*types.Factor, 0, len(extracted.Factors))
	for _, cand := range extracted.Factors {
		value, err := json.Marshal(cand.Value)
		if err != nil {
			value = []byte("null")
		}
		newFactors = append(newFactors, &types.Factor{
			ID:            uuid.New(),
			UserID:        userID,
			Domain:        cand.Code.Domain(),
			Type:          cand.Type,
			Code:          cand.Code,
			Value:         datatypes.JSON(value),
			Confidence:    cand.Confidence,
			TimeHorizon:   cand.TimeHorizon,
			Modifiability: cand.Modifiability,
			SourceEventID: event.ID,
			CreatedAt:     now,
		})
	}

	var prof *profile.Profile
	var applyErr error
	for attempt := 0; attempt < versionRetryMax; attempt++ {
		prof, applyErr = is.applyFactors(ctx, userID, event.ID, newFactors)
		if applyErr == nil || !errors.Is(applyErr, apperrors.ErrConflict) {
			break
		}
	}
	if applyErr != nil {
		return nil, nil, applyErr
	}

	fuCount, err := is.fuRepo.CountCreatedToday(ctx, nil, userID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("count follow-ups: %w", err)
	}

	snap := decide.Decide(decide.Input{
		EventID:           event.ID,
		CreatedAt:         now,
		Intent:            event.Intent,
		SaveMode:          event.SaveMode,
		Classification:    classification,
		Extracted:         extracted,
		Profile:           prof,
		FollowUpCount:     int(fuCount),
		OracleUnavailable: oracleUnavailable,
	})

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := is.snapRepo.Create(ctx, nil, &types.StateSnapshot{
		ID:        uuid.New(),
		EventID:   event.ID,
		UserID:    userID,
		Snapshot:  datatypes.JSON(raw),
		CreatedAt: now,
	}); err != nil {
		return nil, nil, fmt.Errorf("persist snapshot: %w", err)
	}

	if snap.NextActionKind == taxonomy.ActionAskFollowUp {
		fu := &types.PendingFollowUp{
			ID:             uuid.New(),
			UserID:         userID,
			ParentEventID:  event.ID,
			MissingInfoKey: snap.MissingInfoKey,
			QuestionText:   snap.FollowUpQuestion,
			FollowUpCount:  snap.FollowUpCount,
			Status:         types.FollowUpStatusOpen,
			CreatedAt:      now,
		}
		if snap.SymptomKey != "" {
			key := snap.SymptomKey
			fu.SymptomKey = &key
		}
		if _, inserted, err := is.fuRepo.CreateIdempotent(ctx, nil, fu); err != nil {
			return nil, nil, fmt.Errorf("persist follow-up: %w", err)
		} else if inserted {
			is.publish(ctx, userID, sse.SSEEventFollowUpOpened, fu)
		}
	}

	return prof, &snap, nil
}

// applyFactors appends the event's factors and folds them into the stored
// profile state under the optimistic version check.
func (is *ingestService) applyFactors(ctx context.Context, userID, eventID uuid.UUID, newFactors []*types.Factor) (*profile.Profile, error) {
	state, err := is.stateRepo.Get(ctx, nil, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("load profile state: %w", err)
	}

	var prof *profile.Profile
	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(newFactors) > 0 {
			if _, err := is.factorRepo.Append(ctx, tx, newFactors); err != nil {
				return fmt.Errorf("append factors: %w", err)
			}
		}

		// The profile is a pure fold over the log, so rebuilding from the
		// log inside the transaction is always correct, and cheap at the
		// per-user scale this runs at.
		all, err := is.factorRepo.ListByUser(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("list factors: %w", err)
		}
		prof = profile.Rebuild(userID, factorRecords(all))

		newState, err := encodeProfileState(prof)
		if err != nil {
			return err
		}
		newState.LatestEventID = &eventID

		if state == nil {
			newState.Version = 1
			if _, err := is.stateRepo.Upsert(ctx, tx, newState); err != nil {
				return fmt.Errorf("create profile state: %w", err)
			}
			return nil
		}

		newState.Version = state.Version + 1
		if err := is.stateRepo.UpdateVersioned(ctx, tx, newState, state.Version); err != nil {
			return err
		}
		return is.stateRepo.StampLatestEvent(ctx, tx, userID, eventID)
	})
	if err != nil {
		return nil, err
	}

	prof.Version = stateVersion(state) + 1
	is.publish(ctx, userID, sse.SSEEventProfileUpdated, map[string]any{
		"user_id": userID,
		"version": prof.Version,
	})
	return prof, nil
}

func stateVersion(state *types.ProfileState) int64 {
	if state == nil {
		return 0
	}
	return state.Version
}

// buildResponse assembles selector signals and runs the response mapping.
func (is *ingestService) buildResponse(
	ctx context.Context,
	userID uuid.UUID,
	event *types.Event,
	text string,
	classification classify.Result,
	extracted extract.Payload,
	snap decide.Snapshot,
	prof *profile.Profile,
) respond.Model {
	recurrent := false
	remembered := ""
	if snap.SymptomKey != "" {
		insights, err := is.insightRepo.ListByUser(ctx, nil, userID)
		if err != nil {
			is.log.Warn("failed to load insights for response", "user_id", userID, "error", err)
		} else {
			for _, ins := range insights {
				if ins.SymptomKey == snap.SymptomKey && !ins.Dismissed {
					recurrent = true
					remembered = ins.Insight
					break
				}
			}
		}
	}

	nextStep := ""
	if len(snap.WhatMatters) > 0 && snap.NextActionKind == taxonomy.ActionAnswer {
		nextStep = "One small step: pick the item above that feels most movable this week."
	}

	sig := BuildSignals(SignalInput{
		Text:              text,
		Intent:            event.Intent,
		SaveMode:          event.SaveMode,
		Classification:    classification,
		Extracted:         extracted,
		Snapshot:          snap,
		ActiveFactorCount: len(prof.Latest),
		RecurrentSymptom:  recurrent,
		RememberedSummary: remembered,
		NextStep:          nextStep,
	})
	model := respond.Select(sig)

	// Transparency chips: the committed factors this event contributed.
	for _, f := range extracted.Factors {
		model.FactorChips = append(model.FactorChips, respond.FactorChip{
			Code:       string(f.Code),
			Label:      string(f.Code),
			Confidence: f.Confidence,
		})
	}

	if snap.NextActionKind == taxonomy.ActionSafetyEscalation {
		model.SafetyNet = snap.SafetyCopy
	}
	return model
}

func (is *ingestService) publish(ctx context.Context, userID uuid.UUID, event sse.SSEEvent, data any) {
	msg := sse.SSEMessage{
		Channel: sse.UserChannel(userID),
		Event:   event,
		Data:    data,
	}
	if is.hub != nil {
		is.hub.Broadcast(msg)
	}
	if is.bus != nil {
		if err := is.bus.Publish(ctx, msg); err != nil {
			is.log.Warn("failed to publish SSE message", "error", err)
		}
	}
}

// factorRecords converts stored rows into aggregator records.
func factorRecords(rows []*types.Factor) []profile.FactorRecord {
	out := make([]profile.FactorRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, profile.FactorRecord{
			ID:            r.ID,
			UserID:        r.UserID,
			Domain:        r.Domain,
			Type:          r.Type,
			Code:          r.Code,
			Value:         string(r.Value),
			Confidence:    r.Confidence,
			TimeHorizon:   r.TimeHorizon,
			Modifiability: r.Modifiability,
			SourceEventID: r.SourceEventID,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

// encodeProfileState serializes the aggregate for the read-model row.
func encodeProfileState(p *profile.Profile) (*types.ProfileState, error) {
	latest, err := json.Marshal(p.Latest)
	if err != nil {
		return nil, fmt.Errorf("marshal latest index: %w", err)
	}
	coverage, err := json.Marshal(p.Coverage)
	if err != nil {
		return nil, fmt.Errorf("marshal coverage: %w", err)
	}
	top, err := json.Marshal(p.TopConstraints(profile.DefaultTopK))
	if err != nil {
		return nil, fmt.Errorf("marshal top constraints: %w", err)
	}
	return &types.ProfileState{
		UserID:         p.UserID,
		UpdatedAt:      time.Now().UTC(),
		Latest:         datatypes.JSON(latest),
		Coverage:       datatypes.JSON(coverage),
		TopConstraints: datatypes.JSON(top),
	}, nil
}

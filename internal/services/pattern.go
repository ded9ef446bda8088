package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/clients/redis"
	"github.com/starbound-health/navigator-backend/internal/patterns"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	factorrepo "github.com/starbound-health/navigator-backend/internal/repos/factor"
	insightrepo "github.com/starbound-health/navigator-backend/internal/repos/insight"
	"github.com/starbound-health/navigator-backend/internal/sse"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
	"github.com/starbound-health/navigator-backend/internal/types"
)

const recomputeWorkers = 4

type PatternService interface {
	// Recompute re-detects patterns for one user. Idempotent: detector
	// ids are deterministic and upserts land on the same rows.
	Recompute(ctx context.Context, userID uuid.UUID) ([]*types.PatternInsight, error)
	// RecomputeAll fans recompute out over a worker pool.
	RecomputeAll(ctx context.Context, userIDs []uuid.UUID) error
	// StartSweeper recomputes patterns for every recently active user on
	// the given interval until ctx is cancelled.
	StartSweeper(ctx context.Context, interval time.Duration)
	ListVisible(ctx context.Context, userID uuid.UUID) ([]*types.PatternInsight, error)
	Dismiss(ctx context.Context, userID, insightID uuid.UUID) error
	Bookmark(ctx context.Context, userID, insightID uuid.UUID, bookmarked bool) error
}

type patternService struct {
	db          *gorm.DB
	log         *logger.Logger
	factorRepo  factorrepo.FactorRepo
	insightRepo insightrepo.InsightRepo
	coord       redis.Coordinator
	hub         *sse.SSEHub
	bus         redis.SSEBus
}

func NewPatternService(
	db *gorm.DB,
	log *logger.Logger,
	factorRepo factorrepo.FactorRepo,
	insightRepo insightrepo.InsightRepo,
	coord redis.Coordinator,
	hub *sse.SSEHub,
	bus redis.SSEBus,
) PatternService {
	serviceLog := log.With("service", "PatternService")
	return &patternService{
		db:          db,
		log:         serviceLog,
		factorRepo:  factorRepo,
		insightRepo: insightRepo,
		coord:       coord,
		hub:         hub,
		bus:         bus,
	}
}

func (ps *patternService) Recompute(ctx context.Context, userID uuid.UUID) ([]*types.PatternInsight, error) {
	release, ok, err := ps.coord.AcquireUserLock(ctx, userID, userLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire user lock: %w", err)
	}
	if !ok {
		// A pipeline run is folding for this user right now; skip quietly,
		// the next recompute will see the new factors.
		ps.log.Debug("recompute skipped, user busy", "user_id", userID)
		return nil, nil
	}
	defer release()

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -taxonomy.RecurrenceWindowDays)
	rows, err := ps.factorRepo.ListByUserSince(ctx, nil, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent factors: %w", err)
	}

	entries := entriesFromFactors(userID, rows)
	detected := patterns.Detect(userID, entries, now)
	if len(detected) == 0 {
		return nil, nil
	}

	stored := make([]*types.PatternInsight, 0, len(detected))
	for _, d := range detected {
		row, err := insightRow(d)
		if err != nil {
			return nil, err
		}
		stored = append(stored, row)
	}
	if err := ps.insightRepo.UpsertDetected(ctx, nil, stored); err != nil {
		return nil, fmt.Errorf("store insights: %w", err)
	}

	msg := sse.SSEMessage{
		Channel: sse.UserChannel(userID),
		Event:   sse.SSEEventInsightDetected,
		Data:    map[string]any{"count": len(stored)},
	}
	if ps.hub != nil {
		ps.hub.Broadcast(msg)
	}
	if ps.bus != nil {
		if err := ps.bus.Publish(ctx, msg); err != nil {
			ps.log.Warn("failed to publish insight message", "error", err)
		}
	}
	return stored, nil
}

func (ps *patternService) RecomputeAll(ctx context.Context, userIDs []uuid.UUID) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeWorkers)
	for _, id := range userIDs {
		userID := id
		g.Go(func() error {
			if _, err := ps.Recompute(gctx, userID); err != nil {
				ps.log.Warn("recompute failed for user", "user_id", userID, "error", err)
			}
			// One user's failure never aborts the sweep.
			return nil
		})
	}
	return g.Wait()
}

func (ps *patternService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				since := time.Now().UTC().AddDate(0, 0, -taxonomy.RecurrenceWindowDays)
				userIDs, err := ps.factorRepo.ListActiveUserIDs(ctx, nil, since)
				if err != nil {
					ps.log.Warn("pattern sweep could not list active users", "error", err)
					continue
				}
				if len(userIDs) == 0 {
					continue
				}
				ps.log.Info("pattern sweep starting", "users", len(userIDs))
				if err := ps.RecomputeAll(ctx, userIDs); err != nil {
					ps.log.Warn("pattern sweep aborted", "error", err)
				}
			}
		}
	}()
}

func (ps *patternService) ListVisible(ctx context.Context, userID uuid.UUID) ([]*types.PatternInsight, error) {
	all, err := ps.insightRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	visible := make([]*types.PatternInsight, 0, len(all))
	for _, row := range all {
		i := patterns.Insight{
			OccurrenceCount: row.OccurrenceCount,
			DaySpan:         row.DaySpan,
			EndDate:         row.EndDate,
			Dismissed:       row.Dismissed,
		}
		if patterns.ShouldShow(i, now) {
			visible = append(visible, row)
		}
	}
	return visible, nil
}

func (ps *patternService) Dismiss(ctx context.Context, userID, insightID uuid.UUID) error {
	if err := ps.assertOwner(ctx, userID, insightID); err != nil {
		return err
	}
	return ps.insightRepo.SetDismissed(ctx, nil, insightID, true)
}

func (ps *patternService) Bookmark(ctx context.Context, userID, insightID uuid.UUID, bookmarked bool) error {
	if err := ps.assertOwner(ctx, userID, insightID); err != nil {
		return err
	}
	return ps.insightRepo.SetBookmarked(ctx, nil, insightID, bookmarked)
}

func (ps *patternService) assertOwner(ctx context.Context, userID, insightID uuid.UUID) error {
	row, err := ps.insightRepo.GetByID(ctx, nil, insightID)
	if err != nil {
		return err
	}
	if row.UserID != userID {
		return fmt.Errorf("insight %s does not belong to user", insightID)
	}
	return nil
}

// entriesFromFactors groups the factor log by source event into detector
// entries. Symptom-domain codes become symptom keys; everything else is a
// co-occurring factor key.
func entriesFromFactors(userID uuid.UUID, rows []*types.Factor) []patterns.Entry {
	byEvent := map[uuid.UUID]*patterns.Entry{}
	var order []uuid.UUID
	for _, r := range rows {
		e, ok := byEvent[r.SourceEventID]
		if !ok {
			e = &patterns.Entry{
				ID:        r.SourceEventID,
				UserID:    userID,
				CreatedAt: r.CreatedAt,
			}
			byEvent[r.SourceEventID] = e
			order = append(order, r.SourceEventID)
		}
		if r.Domain == taxonomy.DomainSymptomsBodySignals {
			e.SymptomKeys = append(e.SymptomKeys, string(r.Code))
		} else {
			e.FactorKeys = append(e.FactorKeys, string(r.Code))
		}
	}
	out := make([]patterns.Entry, 0, len(order))
	for _, id := range order {
		out = append(out, *byEvent[id])
	}
	return out
}

func insightRow(d patterns.Insight) (*types.PatternInsight, error) {
	co, err := json.Marshal(d.CoOccurrences)
	if err != nil {
		return nil, fmt.Errorf("marshal co-occurrences: %w", err)
	}
	sugg, err := json.Marshal(d.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("marshal suggestions: %w", err)
	}
	src, err := json.Marshal(d.SourceEntryIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal source entries: %w", err)
	}
	return &types.PatternInsight{
		ID:              d.ID,
		UserID:          d.UserID,
		SymptomKey:      d.SymptomKey,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		OccurrenceCount: d.OccurrenceCount,
		DaySpan:         d.DaySpan,
		Insight:         d.Insight,
		Connection:      d.Connection,
		CoOccurrences:   datatypes.JSON(co),
		Suggestions:     datatypes.JSON(sugg),
		SourceEntryIDs:  datatypes.JSON(src),
	}, nil
}

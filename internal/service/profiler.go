package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

const (
	// ProfileStaleAfter is how long a derived persona is trusted before
	// the profiler revisits it.
	ProfileStaleAfter = 7 * 24 * time.Hour

	// PersonaConfidenceFloor marks profiles worth re-deriving even when
	// fresh.
	PersonaConfidenceFloor = 70

	profilerWindowDays  = 30
	profilerMinLogs     = 8
	confidencePerLog    = 3
	baseConfidence      = 40
	maxDerivedConfident = 95
)

// ProfilerService periodically re-derives user personas from recent
// activity. Profiles are refreshed when stale or when the stored persona
// confidence has dropped below the floor.
type ProfilerService struct {
	profiles domain.ProfileStore
	logs     domain.ActivityLogStore
	logger   *zap.Logger
	interval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewProfilerService(profiles domain.ProfileStore, logs domain.ActivityLogStore, interval time.Duration, logger *zap.Logger) *ProfilerService {
	return &ProfilerService{
		profiles: profiles,
		logs:     logs,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (p *ProfilerService) Start() {
	p.wg.Add(1)
	go p.run()
	p.logger.Info("profiler started", zap.Duration("interval", p.interval))
}

func (p *ProfilerService) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("profiler stopped")
}

func (p *ProfilerService) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.RefreshStale(context.Background())
		case <-p.stopCh:
			return
		}
	}
}

// RefreshStale re-derives personas for every profile that is stale or
// low-confidence. Errors on individual users are logged and skipped so
// one bad row cannot stall the sweep.
func (p *ProfilerService) RefreshStale(ctx context.Context) {
	now := time.Now()
	stale, err := p.profiles.ListStale(ctx, now.Add(-ProfileStaleAfter), PersonaConfidenceFloor)
	if err != nil {
		p.logger.Error("listing stale profiles", zap.Error(err))
		return
	}

	for _, profile := range stale {
		if err := p.RefreshProfile(ctx, &profile, now); err != nil {
			p.logger.Warn("profile refresh failed",
				zap.String("user_id", profile.UserID.String()),
				zap.Error(err))
		}
	}
}

// RefreshProfile derives persona, confidence, and habit level from the
// user's last 30 days of logs and upserts the result.
func (p *ProfilerService) RefreshProfile(ctx context.Context, profile *domain.UserProfile, now time.Time) error {
	logs, err := p.logs.ListByUserSince(ctx, profile.UserID, now.AddDate(0, 0, -profilerWindowDays))
	if err != nil {
		return err
	}

	persona, confidence := derivePersona(logs)
	if len(logs) < profilerMinLogs {
		// Not enough signal; keep the existing persona but record the
		// low confidence so the next sweep revisits.
		persona = profile.Persona
		if persona == "" {
			persona = domain.PersonaGeneral
		}
		confidence = baseConfidence
	}

	profile.Persona = persona
	profile.PersonaConfidence = confidence
	profile.HabitLevel = deriveHabitLevel(logs)
	profile.UpdatedAt = now

	p.logger.Debug("profile refreshed",
		zap.String("user_id", profile.UserID.String()),
		zap.String("persona", string(persona)),
		zap.Int("confidence", confidence))

	return p.profiles.Upsert(ctx, profile)
}

// derivePersona maps dominant activity types to a persona. Confidence
// grows with log volume on top of a base score.
func derivePersona(logs []domain.ActivityLog) (domain.PersonaType, int) {
	var endurance, strength, sport, weight int
	for _, l := range logs {
		switch l.Category {
		case domain.CategoryWeight:
			weight++
		case domain.CategoryExercise:
			at, _ := l.StringField(domain.FieldActivityType)
			switch {
			case containsAny(at, []string{"run", "cycl", "bike", "swim", "row", "hike"}):
				endurance++
			case containsAny(at, []string{"lift", "strength", "weights", "squat", "deadlift", "bench"}):
				strength++
			case containsAny(at, []string{"tennis", "soccer", "basketball", "climb", "match", "game"}):
				sport++
			}
		}
	}

	confidence := baseConfidence + len(logs)*confidencePerLog
	if confidence > maxDerivedConfident {
		confidence = maxDerivedConfident
	}

	best := domain.PersonaGeneral
	bestCount := 0
	for _, c := range []struct {
		persona domain.PersonaType
		count   int
	}{
		{domain.PersonaEndurance, endurance},
		{domain.PersonaStrength, strength},
		{domain.PersonaSport, sport},
		{domain.PersonaWeightManagement, weight},
	} {
		if c.count > bestCount {
			best = c.persona
			bestCount = c.count
		}
	}
	if bestCount == 0 {
		return domain.PersonaGeneral, baseConfidence
	}
	return best, confidence
}

// deriveHabitLevel buckets logging consistency over the window.
func deriveHabitLevel(logs []domain.ActivityLog) domain.HabitLevel {
	days := map[string]bool{}
	for _, l := range logs {
		days[l.LoggedAt.Format("2006-01-02")] = true
	}
	switch {
	case len(days) >= 20:
		return domain.HabitEstablished
	case len(days) >= 8:
		return domain.HabitDeveloping
	default:
		return domain.HabitNew
	}
}

func containsAny(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

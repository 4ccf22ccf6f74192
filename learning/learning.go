// Package learning implements PERA's Learning Loop (LRN): it mines the
// Episodic Log for tool-performance comparisons, recurring execution
// patterns, and success/failure factors, abstracts recurring patterns into
// candidate Skills, scores their generalization quality, integrates the
// ones that clear the quality bar into the Knowledge Store, and updates
// tool preferences when a statistically significant, sufficiently large
// improvement is found.
//
// Grounded file-by-file on original_source/src/aprendizaje: performance.go
// on analisis_rendimiento.py, patterns.go on deteccion_patrones.py,
// factors.go on identificacion_factores.py, quality.go on
// evaluacion_calidad.py, skills.go on integracion_habilidades.py,
// preferences.go on actualizacion_preferencias.py, impact.go on
// monitor_impacto.py. Each analysis runs in its own goroutine and is
// isolated with recover(): a panicking or erroring analysis contributes an
// empty result plus a recorded error string, and never aborts the rest of
// the cycle. A preference update applied in one cycle has its impact
// evaluated one cycle later, once enough "after" episodes can plausibly
// exist.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/memory"
)

// Learner runs learning cycles over the Episodic Log and Knowledge Store.
// It satisfies orchestrator.Learner: ScheduleLearning records an episode
// ID and returns immediately; a background goroutine runs RunCycle on its
// own cadence (config.LearningConfig.CycleInterval) rather than inline
// with Submit. Each cycle analyzes every episode in the configured window;
// RunCycle does not read the recorded IDs.
type Learner struct {
	cfg    config.LearningConfig
	mem    memory.Store
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}

	appliedMu sync.Mutex
	applied   []PreferenceUpdate

	stop chan struct{}
	done chan struct{}
}

// NewLearner constructs a Learner and starts its background cycle
// goroutine. Call Close to stop it.
func NewLearner(cfg config.LearningConfig, mem memory.Store, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Learner{
		cfg:     cfg,
		mem:     mem,
		logger:  logger,
		pending: make(map[string]struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.loop()
	return l
}

// ScheduleLearning records the episode's ID as pending analysis.
// It never blocks on the analysis itself.
func (l *Learner) ScheduleLearning(_ context.Context, ep *memory.Episode) error {
	l.mu.Lock()
	l.pending[ep.ID] = struct{}{}
	l.mu.Unlock()
	return nil
}

// Close stops the background cycle goroutine and waits for it to exit.
func (l *Learner) Close() {
	close(l.stop)
	<-l.done
}

func (l *Learner) loop() {
	defer close(l.done)
	interval := l.cfg.CycleInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if _, err := l.RunCycle(ctx); err != nil {
				l.logger.Error("learning cycle failed", "error", err)
			}
			cancel()
		}
	}
}

// RunCycle loads recent episodes from the window configured by
// config.LearningConfig.WindowHours, fans the three analyses out
// concurrently, abstracts and integrates candidate skills from any
// detected patterns, and applies preference updates from significant tool
// comparisons.
func (l *Learner) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{StartedAt: time.Now()}

	since := time.Now().Add(-time.Duration(l.cfg.WindowHours) * time.Hour)
	episodes, err := l.mem.Episodic().Query(ctx, memory.EpisodeQuery{Since: since})
	if err != nil {
		return report, fmt.Errorf("learning: query episodic log: %w", err)
	}
	report.EpisodesSeen = len(episodes)

	if len(episodes) < l.cfg.MinEpisodesPerGroup {
		report.EndedAt = time.Now()
		return report, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(3)

	go func() {
		defer wg.Done()
		defer l.isolate(&mu, &report, "tool_performance")
		comparisons := analyzeToolPerformance(episodes, 10)
		mu.Lock()
		report.Comparisons = comparisons
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		defer l.isolate(&mu, &report, "pattern_detection")
		patterns := detectPatterns(episodes, l.cfg.SuccessFraction, l.cfg.DBSCANEps, l.cfg.DBSCANMinSamples)
		mu.Lock()
		report.Patterns = patterns
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		defer l.isolate(&mu, &report, "factor_identification")
		factors := identifyFactors(episodes)
		mu.Lock()
		report.Factors = factors
		mu.Unlock()
	}()

	wg.Wait()

	ks := l.mem.Knowledge()
	for _, p := range report.Patterns {
		if p.Support < l.cfg.MinEpisodesPerGroup {
			continue
		}
		candidate := CandidateSkill{
			Name:         "pattern_" + fmt.Sprint(len(p.Signature)) + "_steps",
			GoalPattern:  "",
			ToolSequence: p.Signature,
			SourceCount:  p.Support,
		}
		quality := scoreQuality(candidate, l.cfg.MinEpisodesPerGroup, l.cfg.QualityThreshold)
		outcome, err := integrateSkill(ctx, ks, candidate, quality)
		if err != nil {
			report.AnalysisErrors = append(report.AnalysisErrors, fmt.Sprintf("skill_integration: %v", err))
			continue
		}
		report.Integrations = append(report.Integrations, outcome)
	}

	l.appliedMu.Lock()
	toEvaluate := l.applied
	l.applied = nil
	l.appliedMu.Unlock()
	for _, pref := range toEvaluate {
		report.Impacts = append(report.Impacts, evaluateImpact(episodes, pref))
	}

	updates, err := applyPreferenceUpdates(ctx, ks, report.Comparisons, l.cfg.ImprovementThreshold)
	if err != nil {
		report.AnalysisErrors = append(report.AnalysisErrors, fmt.Sprintf("preference_update: %v", err))
	} else {
		report.Preferences = updates
		l.appliedMu.Lock()
		l.applied = append(l.applied, updates...)
		l.appliedMu.Unlock()
	}

	report.EndedAt = time.Now()
	l.logger.Info("learning cycle complete",
		"episodes_seen", report.EpisodesSeen,
		"patterns", len(report.Patterns),
		"integrations", len(report.Integrations),
		"preference_updates", len(report.Preferences),
		"impact_reports", len(report.Impacts),
	)
	return report, nil
}

// isolate recovers a panicking analysis goroutine and records it as an
// analysis error instead of letting it crash the whole learning cycle,
// matching the teacher's isolated-failure fan-out style.
func (l *Learner) isolate(mu *sync.Mutex, report *CycleReport, name string) {
	if r := recover(); r != nil {
		mu.Lock()
		report.AnalysisErrors = append(report.AnalysisErrors, fmt.Sprintf("%s: panic: %v", name, r))
		mu.Unlock()
		l.logger.Error("analysis panicked", "analysis", name, "panic", r)
	}
}

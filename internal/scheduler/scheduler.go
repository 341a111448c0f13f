// Package scheduler runs the periodic sweep that finds students with
// overdue reviews and hands them to a notifier.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/pkg/models"
)

// Default notification window, inclusive local hours
const (
	DefaultStartHour = 8
	DefaultEndHour   = 20
)

// Notifier delivers due-review reminders
type Notifier interface {
	NotifyDueReviews(studentID, courseID string, outcomes []models.ScheduledOutcome) error
}

// OverdueSource answers which outcomes a pair has due. Satisfied by
// tracker.Tracker.
type OverdueSource interface {
	Overdue(ctx context.Context, studentID, courseID string, asOf time.Time) ([]models.ScheduledOutcome, error)
}

// Clock supplies the sweep's notion of now
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config controls the sweep cadence and the hours reminders may fire
type Config struct {
	Every     time.Duration // cadence; zero means hourly
	StartHour int           // first hour reminders may fire, inclusive
	EndHour   int           // last hour, inclusive
	Clock     Clock         // nil means the wall clock
}

// Sweeper periodically walks every enrollment and notifies students whose
// outcomes have come due.
type Sweeper struct {
	scheduler   *gocron.Scheduler
	source      OverdueSource
	enrollments database.EnrollmentLister
	notifier    Notifier
	cfg         Config
	clock       Clock
	log         *zap.Logger
}

// New creates a sweeper. Zero config fields fall back to an hourly sweep
// inside the default notification window.
func New(source OverdueSource, enrollments database.EnrollmentLister, notifier Notifier, cfg Config, logger *zap.Logger) *Sweeper {
	if cfg.Every <= 0 {
		cfg.Every = time.Hour
	}
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour = DefaultStartHour
		cfg.EndHour = DefaultEndHour
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		scheduler:   gocron.NewScheduler(time.UTC),
		source:      source,
		enrollments: enrollments,
		notifier:    notifier,
		cfg:         cfg,
		clock:       clock,
		log:         logger,
	}
}

// Start begins the periodic sweep in the background
func (s *Sweeper) Start() {
	if _, err := s.scheduler.Every(s.cfg.Every).Do(s.sweep); err != nil {
		s.log.Error("schedule sweep", zap.Error(err))
		return
	}
	s.scheduler.StartAsync()
}

// Stop terminates the sweep and waits for a running pass to finish
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

// sweep is one pass over every enrollment
func (s *Sweeper) sweep() {
	now := s.clock.Now()
	if !s.withinWindow(now) {
		s.log.Debug("outside notification hours, skipping sweep",
			zap.Int("hour", now.Hour()),
			zap.Int("start_hour", s.cfg.StartHour),
			zap.Int("end_hour", s.cfg.EndHour))
		return
	}

	ctx := context.Background()
	pairs, err := s.enrollments.Enrollments(ctx)
	if err != nil {
		s.log.Error("list enrollments", zap.Error(err))
		return
	}

	notified := 0
	for _, pair := range pairs {
		due, err := s.source.Overdue(ctx, pair.StudentID, pair.CourseID, now)
		if err != nil {
			s.log.Error("query overdue outcomes",
				zap.String("student_id", pair.StudentID),
				zap.String("course_id", pair.CourseID),
				zap.Error(err))
			continue
		}
		if len(due) == 0 {
			continue
		}
		if err := s.notifier.NotifyDueReviews(pair.StudentID, pair.CourseID, due); err != nil {
			s.log.Error("notify due reviews",
				zap.String("student_id", pair.StudentID),
				zap.String("course_id", pair.CourseID),
				zap.Error(err))
			continue
		}
		notified++
	}
	s.log.Info("sweep finished",
		zap.Int("enrollments", len(pairs)),
		zap.Int("notified", notified))
}

// CheckStudent forces an immediate check for one pair, ignoring the
// notification window.
func (s *Sweeper) CheckStudent(ctx context.Context, studentID, courseID string) error {
	due, err := s.source.Overdue(ctx, studentID, courseID, s.clock.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.NotifyDueReviews(studentID, courseID, due)
}

// withinWindow reports whether reminders may fire at t
func (s *Sweeper) withinWindow(t time.Time) bool {
	hour := t.Hour()
	return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
}

// LogNotifier writes reminders to the log. It is the default delivery
// channel until a real one is wired in.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) NotifyDueReviews(studentID, courseID string, outcomes []models.ScheduledOutcome) error {
	fields := []zap.Field{
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.Int("outcomes", len(outcomes)),
	}
	if len(outcomes) > 0 {
		fields = append(fields,
			zap.String("most_stale", outcomes[0].OutcomeID),
			zap.Time("oldest_due_at", outcomes[0].DueAt))
	}
	n.Log.Info("reviews due", fields...)
	return nil
}

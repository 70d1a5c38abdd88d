package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/fanout/core/logger"
)

// CronConfig configures the heartbeat source.
type CronConfig struct {
	Schedule string `env:"CRON_SCHEDULE" envDefault:"@every 10s"`
	// Message may contain {time}, replaced with the fire time in RFC 3339.
	Message  string `env:"CRON_MESSAGE" envDefault:"heartbeat {time}"`
	Timezone string `env:"CRON_TZ" envDefault:"UTC"`
}

// CronOption configures a Cron source.
type CronOption func(*Cron)

// WithCronLogger sets the cron source's logger.
func WithCronLogger(log *slog.Logger) CronOption {
	return func(c *Cron) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithClock overrides the time source used to render {time}.
func WithClock(now func() time.Time) CronOption {
	return func(c *Cron) {
		if now != nil {
			c.now = now
		}
	}
}

// Cron publishes a message on a cron schedule. Schedules accept an optional
// seconds field and descriptors such as "@every 5s" or "@hourly".
type Cron struct {
	expr     string
	schedule cron.Schedule
	message  string
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewCron validates the schedule and creates the source.
func NewCron(cfg CronConfig, opts ...CronOption) (*Cron, error) {
	schedule, err := cronParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, cfg.Schedule, err)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
		}
	}

	c := &Cron{
		expr:     cfg.Schedule,
		schedule: schedule,
		message:  cfg.Message,
		loc:      loc,
		now:      time.Now,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cron) Name() string { return "cron" }

// Next returns the next fire time after t.
func (c *Cron) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.loc))
}

// Run starts the scheduler and blocks until ctx is done.
func (c *Cron) Run(ctx context.Context, pub Publisher) error {
	if pub == nil {
		return ErrNilPublisher
	}

	sched := cron.New(cron.WithParser(cronParser), cron.WithLocation(c.loc))
	sched.Schedule(c.schedule, cron.FuncJob(func() {
		pub.Publish(c.render(c.now()))
	}))

	sched.Start()
	c.logger.DebugContext(ctx, "cron source started", logger.Key("schedule", c.expr))

	<-ctx.Done()
	<-sched.Stop().Done()
	c.logger.DebugContext(ctx, "cron source stopped")
	return nil
}

func (c *Cron) render(t time.Time) string {
	return strings.ReplaceAll(c.message, "{time}", t.In(c.loc).Format(time.RFC3339))
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/placeholder"
	"github.com/dmitrymomot/notifykit/pkg/quiethours"
)

// logWriteTimeout bounds a delivery log insert. Inserts run detached from
// the dispatch context so an expired dispatch still records its outcomes.
const logWriteTimeout = 5 * time.Second

// Dispatcher runs the notification pipeline for business events.
type Dispatcher struct {
	templates    TemplateStore
	senders      SenderLookup
	deliveries   DeliveryLog
	oracle       RoleOracle
	policy       quiethours.Policy
	timeout      time.Duration
	sendTimeout  time.Duration
	maxWorkers   int
	logTestSends bool
	now          func() time.Time
	logger       *slog.Logger
}

// New creates a Dispatcher.
func New(templates TemplateStore, senders SenderLookup, deliveries DeliveryLog, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates:   templates,
		senders:     senders,
		deliveries:  deliveries,
		policy:      quiethours.Disabled(),
		sendTimeout: 30 * time.Second,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logger.Component("dispatch"))
	return d
}

// job is one planned send.
type job struct {
	tmpl   Template
	ch     channel.Channel
	sender channel.Sender
	msg    channel.Message
}

// rendered is a template after RENDERING and RESOLVING.
type rendered struct {
	tmpl    Template
	subject string
	body    string
	targets Targets
}

// Dispatch runs every active template for ev and returns what happened.
// It never fails: problems are reported in the Result and the delivery log.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (res Result) {
	started := time.Now()
	res = Result{EventType: ev.Type, Reference: ev.Reference, Attempts: []Attempt{}}
	defer func() { res.Duration = time.Since(started) }()

	base := []slog.Attr{logger.EventType(ev.Type), logger.Reference(ev.Reference.Type, ev.Reference.ID)}

	if err := ev.Validate(); err != nil {
		res.Problems = append(res.Problems, newProblem("", "", err))
		d.logger.LogAttrs(ctx, slog.LevelWarn, "rejected event", append(base, logger.Error(err))...)
		return res
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// MATCHING
	templates, err := d.match(ctx, ev.Type)
	if err != nil {
		res.Problems = append(res.Problems, newProblem("", "", err))
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to load templates", append(base, logger.Error(err))...)
		return res
	}
	res.Templates = len(templates)
	if len(templates) == 0 {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "no templates", base...)
		return res
	}

	// RENDERING and RESOLVING, isolated per template.
	resolver := NewResolver(newMemoOracle(d.oracle))
	actor := ev.ActorAddresses()
	plans := make([]rendered, 0, len(templates))
	for _, tmpl := range templates {
		plan, err := d.prepare(ctx, resolver, tmpl, ev, actor)
		if err != nil {
			res.Problems = append(res.Problems, newProblem(tmpl.ID, "", err))
			d.logger.LogAttrs(ctx, slog.LevelWarn, "template degraded",
				append(base, logger.TemplateID(tmpl.ID), logger.Error(err))...)
		}
		if len(plan.targets) > 0 {
			d.logger.LogAttrs(ctx, slog.LevelDebug, "template resolved",
				append(base, logger.TemplateID(tmpl.ID), logger.Count("recipients", plan.targets.Count()))...)
			plans = append(plans, plan)
		}
	}

	// GATING, once per dispatch.
	quiet := d.policy.Suppressed(d.now())

	var jobs []job
	for _, plan := range plans {
		for _, ch := range plan.tmpl.Channels {
			addrs := plan.targets[ch]
			if len(addrs) == 0 {
				continue
			}
			if quiet && !plan.tmpl.Urgent {
				res.Suppressed = append(res.Suppressed, newSuppression(plan.tmpl.ID, ch, len(addrs)))
				continue
			}
			sender, ok := d.lookup(ch)
			if !ok {
				err := fmt.Errorf("%w: %w: %s", ErrConfiguration, channel.ErrNotConfigured, ch)
				res.Problems = append(res.Problems, newProblem(plan.tmpl.ID, ch, err))
				d.logger.LogAttrs(ctx, slog.LevelInfo, "channel not configured",
					append(base, logger.TemplateID(plan.tmpl.ID), logger.Channel(ch))...)
				continue
			}
			msg := channel.Message{Body: plan.body}
			if ch.HasSubject() {
				msg.Subject = plan.subject
			}
			for _, addr := range addrs {
				msg.Address = addr
				jobs = append(jobs, job{tmpl: plan.tmpl, ch: ch, sender: sender, msg: msg})
			}
		}
	}
	if len(res.Suppressed) > 0 {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "suppressed by quiet hours",
			append(base, slog.String("window", d.policy.String()), logger.Count("channels", len(res.Suppressed)))...)
	}

	// SENDING
	res.Attempts = d.send(ctx, ev, jobs)

	// DONE
	d.logger.LogAttrs(ctx, slog.LevelInfo, "dispatch finished",
		append(base,
			logger.Count("templates", res.Templates),
			logger.Count("sent", res.Sent()),
			logger.Count("failed", res.Failed()),
			logger.Count("suppressed", len(res.Suppressed)),
			logger.Duration(time.Since(started)),
		)...)
	return res
}

func (d *Dispatcher) match(ctx context.Context, eventType string) ([]Template, error) {
	if d.templates == nil {
		return nil, fmt.Errorf("%w: no template store", ErrConfiguration)
	}
	all, err := d.templates.ListActive(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("%w: list templates: %w", ErrConfiguration, err)
	}
	templates := make([]Template, 0, len(all))
	for _, t := range all {
		if t.IsActive && t.EventType == eventType {
			templates = append(templates, t)
		}
	}
	return templates, nil
}

// prepare renders and resolves one template. A panic in either step is
// contained to this template.
func (d *Dispatcher) prepare(ctx context.Context, resolver *Resolver, tmpl Template, ev Event, actor Addresses) (plan rendered, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan = rendered{}
			err = fmt.Errorf("%w: panic: %v", ErrRender, r)
		}
	}()

	// Stores may hold templates written before validation; a channel
	// listed twice still gets one message per recipient.
	tmpl.Channels = tmpl.DistinctChannels()
	if err := tmpl.Validate(); err != nil {
		return rendered{}, errors.Join(ErrRender, err)
	}

	plan = rendered{tmpl: tmpl, body: placeholder.Render(tmpl.BodyTemplate, ev.Payload)}
	if tmpl.NeedsSubject() {
		plan.subject = placeholder.Render(tmpl.SubjectTemplate, ev.Payload)
	}

	plan.targets, err = resolver.Resolve(ctx, tmpl, ev.Payload, actor)
	return plan, err
}

func (d *Dispatcher) lookup(ch channel.Channel) (channel.Sender, bool) {
	if d.senders == nil {
		return nil, false
	}
	return d.senders.Lookup(ch)
}

// send runs jobs concurrently and returns their attempts in job order.
func (d *Dispatcher) send(ctx context.Context, ev Event, jobs []job) []Attempt {
	attempts := make([]Attempt, len(jobs))
	if len(jobs) == 0 {
		return attempts
	}

	limit := len(jobs)
	if d.maxWorkers > 0 && d.maxWorkers < limit {
		limit = d.maxWorkers
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			attempts[i] = d.attempt(ctx, ev, j)
			return nil
		})
	}
	_ = g.Wait()

	return attempts
}

// attempt performs one send, or records it as not started when the
// dispatch deadline has passed, and writes the log entry.
func (d *Dispatcher) attempt(ctx context.Context, ev Event, j job) Attempt {
	started := time.Now()

	var (
		receipt channel.Receipt
		err     error
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = notStarted(ctxErr)
	} else {
		receipt, err = d.deliver(ctx, j.sender, j.msg)
	}

	a := Attempt{
		TemplateID:        j.tmpl.ID,
		Channel:           j.ch,
		Address:           j.msg.Address,
		Status:            StatusSent,
		ProviderReference: receipt.ProviderReference,
		Duration:          time.Since(started),
	}
	if err != nil {
		a.Status = StatusFailed
		a.Reason = channel.ReasonOf(err)
		a.Error = errorMessage(err)
		a.ProviderReference = ""
		a.err = errors.Join(ErrDelivery, err)
	}

	entry := d.entry(j.tmpl, j.ch, j.msg, a)
	entry.EventType = ev.Type
	entry.ReferenceType = ev.Reference.Type
	entry.ReferenceID = ev.Reference.ID
	if d.record(ctx, entry) {
		a.LogID = entry.ID
	}

	attrs := []slog.Attr{
		logger.EventType(ev.Type),
		logger.TemplateID(j.tmpl.ID),
		logger.Channel(j.ch),
		logger.Recipient(j.msg.Address),
		logger.Status(string(a.Status)),
		logger.Duration(a.Duration),
	}
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "delivery failed", append(attrs, logger.Reason(string(a.Reason)), logger.Error(err))...)
	} else {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "delivered", attrs...)
	}
	return a
}

// deliver calls the adapter on a context that survives the dispatch
// deadline, bounded by the per-send timeout.
func (d *Dispatcher) deliver(ctx context.Context, sender channel.Sender, msg channel.Message) (receipt channel.Receipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: adapter panic: %v", channel.ErrUnknown, r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()

	return sender.Send(sendCtx, msg)
}

func notStarted(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: dispatch deadline passed before send started", channel.ErrTimeout)
	}
	return fmt.Errorf("%w: dispatch cancelled before send started: %w", channel.ErrUnknown, ctxErr)
}

func (d *Dispatcher) entry(tmpl Template, ch channel.Channel, msg channel.Message, a Attempt) LogEntry {
	now := d.now()
	e := LogEntry{
		ID:                uuid.NewString(),
		TemplateID:        tmpl.ID,
		EventType:         tmpl.EventType,
		Channel:           ch,
		Recipient:         msg.Address,
		Subject:           msg.Subject,
		Body:              msg.Body,
		Status:            a.Status,
		ErrorMessage:      a.Error,
		ErrorCode:         a.Reason,
		ProviderReference: a.ProviderReference,
		CreatedAt:         now,
	}
	if a.Status == StatusSent {
		e.SentAt = &now
	}
	return e
}

// record inserts entry and reports whether it was stored.
func (d *Dispatcher) record(ctx context.Context, entry LogEntry) bool {
	if d.deliveries == nil {
		return false
	}
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	if err := d.deliveries.Insert(insertCtx, entry); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to write delivery log",
			logger.TemplateID(entry.TemplateID),
			logger.Channel(entry.Channel),
			logger.Status(string(entry.Status)),
			logger.Error(err),
		)
		return false
	}
	return true
}

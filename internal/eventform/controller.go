// Package eventform drives the multi-step event wizard: it splits event
// state into steps, validates every step against flags derived from the
// whole form, and maps a valid form to the backend payload.
package eventform

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// NewFormIDPrefix marks ids of forms for entities the backend does not know yet
const NewFormIDPrefix = "new-"

// NewFormID returns a fresh id for a form creating a new entity
func NewFormID() string {
	return NewFormIDPrefix + uuid.NewString()
}

// DraftStore is the part of the draft layer the controller needs
type DraftStore interface {
	Read(ctx context.Context, kind, id string) (drafts.Snapshot, error)
	Clear(ctx context.Context, kind, id string) error
}

// Submission is the state of a wizard as posted by the UI. Base is the
// entity as loaded from the server (empty for new entities); Steps holds
// each step's current values.
type Submission struct {
	Kind  string                   `json:"kind"`
	ID    string                   `json:"id"`
	Base  drafts.Values            `json:"base,omitempty"`
	Steps map[string]drafts.Values `json:"steps"`
}

// Opened is a wizard ready for editing
type Opened struct {
	ID       string                   `json:"id"`
	Steps    map[string]drafts.Values `json:"steps"`
	Order    []string                 `json:"order"`
	HasDraft bool                     `json:"has_draft"`
}

// Controller runs the event wizard
type Controller struct {
	log    logger.Logger
	drafts DraftStore
	steps  []Step
	rules  Rules
	now    func() time.Time
}

// NewController creates a controller over the default event steps
func NewController(log logger.Logger, store DraftStore, rules Rules) *Controller {
	if rules == nil {
		rules = DefaultRules
	}
	return &Controller{
		log:    log,
		drafts: store,
		steps:  EventSteps(),
		rules:  rules,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for qualification validity
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Steps returns the controller's steps in order
func (c *Controller) Steps() []Step {
	return c.steps
}

// Rules returns the qualification decision table
func (c *Controller) Rules() Rules {
	return c.rules
}

// Open merges initial with the stored draft, the draft winning, and splits
// the result into step values with step defaults applied underneath.
func (c *Controller) Open(ctx context.Context, kind, id string, initial drafts.Values) (*Opened, error) {
	if id == "" {
		id = NewFormID()
	}

	snap, err := c.drafts.Read(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	merged := drafts.Clone(initial)
	if merged == nil {
		merged = drafts.Values{}
	}
	for _, step := range c.steps {
		if v, ok := snap[step.Name]; ok {
			merged = drafts.MergeOverwriteArrays(merged, Project(v, step.Paths))
		}
	}

	opened := &Opened{
		ID:       id,
		Steps:    make(map[string]drafts.Values, len(c.steps)),
		Order:    make([]string, len(c.steps)),
		HasDraft: len(snap) > 0,
	}
	for i, step := range c.steps {
		values := Project(merged, step.Paths)
		if step.Defaults != nil {
			values = drafts.MergeOverwriteArrays(step.Defaults, values)
		}
		opened.Steps[step.Name] = values
		opened.Order[i] = step.Name
	}

	c.log.Debug("Opened form", "kind", kind, "id", id, "draft", opened.HasDraft)
	return opened, nil
}

// Merge folds the base and every step's values, in step order, into one form
func (c *Controller) Merge(sub Submission) (models.EventForm, error) {
	known := make(map[string]bool, len(c.steps))
	for _, step := range c.steps {
		known[step.Name] = true
	}
	for name := range sub.Steps {
		if !known[name] {
			return models.EventForm{}, apperrors.InvalidInputf("unknown form step %q", name)
		}
	}

	merged := drafts.Clone(sub.Base)
	if merged == nil {
		merged = drafts.Values{}
	}
	for _, step := range c.steps {
		if v, ok := sub.Steps[step.Name]; ok {
			merged = drafts.MergeOverwriteArrays(merged, Project(v, step.Paths))
		}
	}

	form, err := Decode(merged)
	if err != nil {
		return form, apperrors.Wrap(err, apperrors.ErrInvalidInput, "invalid form values")
	}
	return form, nil
}

// Validate merges the submission and runs every step validator
// concurrently. It returns the merged form and, when any step fails, a
// *ValidationError.
func (c *Controller) Validate(ctx context.Context, ref models.ReferenceData, sub Submission) (models.EventForm, error) {
	form, err := c.Merge(sub)
	if err != nil {
		return form, err
	}
	full, err := ToValues(form)
	if err != nil {
		return form, apperrors.Internal(err)
	}

	flags := DeriveFlags(form, ref, c.rules, c.now())
	results := make([]FieldErrors, len(c.steps))

	g, gctx := errgroup.WithContext(ctx)
	for i, step := range c.steps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			projected, err := Decode(Project(full, step.Paths))
			if err != nil {
				return fmt.Errorf("step %s: %w", step.Name, err)
			}
			results[i] = step.Validate(projected, flags)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return form, err
	}

	if ve := newValidationError(c.steps, results); ve != nil {
		c.log.Debug("Form invalid", "kind", sub.Kind, "id", sub.ID, "steps", ve.Steps)
		return form, ve
	}
	return form, nil
}

// Submit validates the submission and, when valid, hands the merged form
// to onSubmit. The draft is cleared only after onSubmit succeeds.
func (c *Controller) Submit(ctx context.Context, ref models.ReferenceData, sub Submission,
	onSubmit func(ctx context.Context, form models.EventForm) error) error {

	form, err := c.Validate(ctx, ref, sub)
	if err != nil {
		return err
	}
	if err := onSubmit(ctx, form); err != nil {
		return err
	}

	if sub.ID != "" {
		if err := c.drafts.Clear(ctx, sub.Kind, sub.ID); err != nil {
			// the entity is saved; a stale draft only resurfaces on next open
			c.log.Warn("Failed to clear draft", "kind", sub.Kind, "id", sub.ID, "error", err)
		}
	}
	c.log.Info("Form submitted", "kind", sub.Kind, "id", sub.ID)
	return nil
}

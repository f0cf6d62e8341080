package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrMissingKey is returned when an operation requires a persisted entity but
// received one without a key.
var ErrMissingKey = errors.New("entity key missing")

// Config wires one Controller instance to its collaborators. Service and
// Surface are required; the remaining collaborators and hooks are optional
// and disable the behavior they back when nil.
type Config[E Record[E]] struct {
	Entity  EntityType
	Scope   Scope
	Service CollectionService[E]
	Surface EditSurface[E]
	Prompt  ConfirmPrompt
	Picker  DatePicker
	Roles   RoleChecker
	Ender   ValidityEnder[E]

	// MutatingRole, when set together with Roles, gates every mutating
	// operation on the acting user holding the role.
	MutatingRole string

	// NewDraft builds the prefilled entity handed to the edit surface by Add.
	NewDraft func(Scope) E

	// Validate performs the entity-specific shape check on a confirmed
	// payload before it is dispatched. Tenant scoping is always checked in
	// addition.
	Validate func(E, Scope) error

	// CategoryOf and YearDateOf feed the category and year filter
	// predicates; entities without those discriminants leave them nil and
	// the predicates stay neutral.
	CategoryOf func(E) string
	YearDateOf func(E) (time.Time, bool)

	// ConfirmDelete, when set, is the prompt message shown before Delete
	// dispatches. Empty skips the prompt.
	ConfirmDelete string

	Logger *slog.Logger
}

// Controller is the per-entity-type list state container: it owns the entity
// cache, the shared filter state, the named projections derived from both,
// and the CRUD orchestration against the remote collection service.
type Controller[E Record[E]] struct {
	cfg     Config[E]
	cache   *Cache[E]
	filters *FilterState
	logger  *slog.Logger

	mu          sync.Mutex
	projections map[string]*Projection[E]

	reloads sync.WaitGroup
}

// NewController builds a controller from the config and registers the default
// "all" view. The cache is empty until Activate or WaitReloads observes the
// first load.
func NewController[E Record[E]](cfg Config[E]) (*Controller[E], error) {
	if cfg.Service == nil {
		return nil, errors.New("controller requires a collection service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("entity", string(cfg.Entity))
	c := &Controller[E]{
		cfg:         cfg,
		filters:     NewFilterState(),
		logger:      logger,
		projections: make(map[string]*Projection[E]),
	}
	c.cache = NewCache(func(ctx context.Context) ([]E, error) {
		return cfg.Service.List(ctx, cfg.Scope.Tenant)
	}, logger)
	c.DefineView("all", nil)
	return c, nil
}

// Activate performs the initial synchronous load of the collection.
func (c *Controller[E]) Activate(ctx context.Context) {
	c.cache.Reload(ctx)
}

// Filters returns the shared filter state; mutations are immediately visible
// to every projection on its next read.
func (c *Controller[E]) Filters() *FilterState { return c.filters }

// Cache returns the underlying entity cache.
func (c *Controller[E]) Cache() *Cache[E] { return c.cache }

// DefineView registers a named projection with an optional view-specific base
// predicate and returns it. Redefining a name replaces the projection.
func (c *Controller[E]) DefineView(name string, base func(E) bool) *Projection[E] {
	p := newProjection(name, c.cache, c.filters, base, c.matches)
	c.mu.Lock()
	c.projections[name] = p
	c.mu.Unlock()
	return p
}

// View returns the named projection, or nil if it was never defined.
func (c *Controller[E]) View(name string) *Projection[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projections[name]
}

// matches is the conjunction of the universal filter predicates plus the
// optional discriminant predicates wired through the config.
func (c *Controller[E]) matches(e E, f *FilterState) bool {
	if !MatchIndex(e.SearchIndex(), f.Search()) {
		return false
	}
	if tag := f.Tag(); !isSentinel(tag) && !containsToken(e.TagTokens(), tag) {
		return false
	}
	if c.cfg.CategoryOf != nil && !MatchCategory(c.cfg.CategoryOf(e), f.Category()) {
		return false
	}
	if c.cfg.YearDateOf != nil {
		if date, ok := c.cfg.YearDateOf(e); ok && !MatchYear(date, f.Year()) {
			return false
		}
	}
	return true
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Add opens the edit surface over a fresh draft and creates the confirmed
// payload. Cancel is a no-op with no remote call and no reload.
func (c *Controller[E]) Add(ctx context.Context) error {
	if !c.canMutate() {
		return nil
	}
	var draft E
	if c.cfg.NewDraft != nil {
		draft = c.cfg.NewDraft(c.cfg.Scope)
	}
	result, err := c.openSurface(ctx, draft)
	if err != nil {
		return err
	}
	if !result.Confirmed {
		return nil
	}
	if !c.acceptPayload(result.Payload) {
		return nil
	}
	if _, err := c.cfg.Service.Create(ctx, result.Payload, c.cfg.Scope.User); err != nil {
		return fmt.Errorf("create %s: %w", c.cfg.Entity, err)
	}
	c.scheduleReload(ctx)
	return nil
}

// Edit opens the edit surface over a structural copy of the entity, never the
// live reference, and dispatches the confirmed payload to create or update
// depending on whether a key is present. The returned error reflects the
// remote write only; the cache reload runs fire-and-forget afterwards.
func (c *Controller[E]) Edit(ctx context.Context, entity E) error {
	if !c.canMutate() {
		return nil
	}
	result, err := c.openSurface(ctx, entity.Clone())
	if err != nil {
		return err
	}
	if !result.Confirmed {
		return nil
	}
	if !c.acceptPayload(result.Payload) {
		return nil
	}
	if result.Payload.RecordKey() == "" {
		_, err = c.cfg.Service.Create(ctx, result.Payload, c.cfg.Scope.User)
	} else {
		_, err = c.cfg.Service.Update(ctx, result.Payload, c.cfg.Scope.User)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", c.cfg.Entity, err)
	}
	c.scheduleReload(ctx)
	return nil
}

// Delete removes the entity after an optional confirmation prompt. The
// collection service decides whether deletion is physical or an archive
// update; the controller only dispatches.
func (c *Controller[E]) Delete(ctx context.Context, entity E) error {
	if !c.canMutate() {
		return nil
	}
	if entity.RecordKey() == "" {
		return ErrMissingKey
	}
	if c.cfg.Prompt != nil && c.cfg.ConfirmDelete != "" {
		ok, err := c.cfg.Prompt.Confirm(ctx, c.cfg.ConfirmDelete)
		if err != nil {
			return fmt.Errorf("confirm delete: %w", err)
		}
		if !ok {
			return nil
		}
	}
	if err := c.cfg.Service.Delete(ctx, entity, c.cfg.Scope.User); err != nil {
		return fmt.Errorf("delete %s: %w", c.cfg.Entity, err)
	}
	c.scheduleReload(ctx)
	return nil
}

// EndValidity closes the entity's validity window as of a user-picked date.
// Dismissing the picker cancels the whole operation with no side effects.
func (c *Controller[E]) EndValidity(ctx context.Context, entity E) error {
	if !c.canMutate() {
		return nil
	}
	if c.cfg.Ender == nil || c.cfg.Picker == nil {
		return nil
	}
	if entity.RecordKey() == "" {
		return ErrMissingKey
	}
	asOf, ok, err := c.cfg.Picker.PickDate(ctx)
	if err != nil {
		return fmt.Errorf("pick end date: %w", err)
	}
	if !ok {
		return nil
	}
	if err := c.cfg.Ender.EndByDate(ctx, entity, asOf, c.cfg.Scope.User); err != nil {
		return fmt.Errorf("end %s: %w", c.cfg.Entity, err)
	}
	c.scheduleReload(ctx)
	return nil
}

// WaitReloads blocks until every reload scheduled so far has finished. Tests
// use it to observe the cache state after a mutation; production callers
// never need it because reloads are fire-and-forget.
func (c *Controller[E]) WaitReloads() {
	c.reloads.Wait()
}

func (c *Controller[E]) canMutate() bool {
	if c.cfg.Scope.ReadOnly {
		c.logger.Debug("mutation skipped, controller is read only")
		return false
	}
	if c.cfg.Roles != nil && c.cfg.MutatingRole != "" && !c.cfg.Roles.HasRole(c.cfg.MutatingRole, c.cfg.Scope.User) {
		c.logger.Debug("mutation skipped, missing role", "role", c.cfg.MutatingRole, "user", c.cfg.Scope.User)
		return false
	}
	return true
}

func (c *Controller[E]) openSurface(ctx context.Context, draft E) (ModalResult[E], error) {
	if c.cfg.Surface == nil {
		return Cancelled[E](), nil
	}
	result, err := c.cfg.Surface.Edit(ctx, draft, c.cfg.Scope)
	if err != nil {
		return Cancelled[E](), fmt.Errorf("edit surface: %w", err)
	}
	return result, nil
}

// acceptPayload runs the tenant and shape checks on a confirmed payload. A
// failing payload is logged and dropped without surfacing an error.
func (c *Controller[E]) acceptPayload(payload E) bool {
	if tenant := c.cfg.Scope.Tenant; tenant != "" && !containsToken(payload.TenantIDs(), tenant) {
		c.logger.Warn("payload dropped, tenant mismatch", "key", payload.RecordKey(), "tenant", tenant)
		return false
	}
	if c.cfg.Validate != nil {
		if err := c.cfg.Validate(payload, c.cfg.Scope); err != nil {
			c.logger.Warn("payload dropped, shape check failed", "key", payload.RecordKey(), "error", err)
			return false
		}
	}
	return true
}

// scheduleReload refreshes the cache in the background. The reload outlives
// the triggering call's context so a caller returning early cannot cancel it.
func (c *Controller[E]) scheduleReload(ctx context.Context) {
	reloadCtx := context.WithoutCancel(ctx)
	c.reloads.Add(1)
	go func() {
		defer c.reloads.Done()
		c.cache.Reload(reloadCtx)
	}()
}

// Package memory provides an in-memory implementation of the clubcore
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"clubcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Person aliases domain.Person for in-memory persistence operations.
	Person = domain.Person
	// Resource aliases domain.Resource.
	Resource = domain.Resource
	// MenuItem aliases domain.MenuItem.
	MenuItem = domain.MenuItem
	// Ownership aliases domain.Ownership.
	Ownership = domain.Ownership
	// WorkRelation aliases domain.WorkRelation.
	WorkRelation = domain.WorkRelation
	// Reservation aliases domain.Reservation.
	Reservation = domain.Reservation
	// Transfer aliases domain.Transfer.
	Transfer = domain.Transfer
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	persons       map[string]Person
	resources     map[string]Resource
	menuItems     map[string]MenuItem
	ownerships    map[string]Ownership
	workRelations map[string]WorkRelation
	reservations  map[string]Reservation
	transfers     map[string]Transfer
}

// Snapshot captures a point-in-time clone of the store state, keyed by record key.
type Snapshot struct {
	Persons       map[string]Person       `json:"persons"`
	Resources     map[string]Resource     `json:"resources"`
	MenuItems     map[string]MenuItem     `json:"menu_items"`
	Ownerships    map[string]Ownership    `json:"ownerships"`
	WorkRelations map[string]WorkRelation `json:"work_relations"`
	Reservations  map[string]Reservation  `json:"reservations"`
	Transfers     map[string]Transfer     `json:"transfers"`
}

func newMemoryState() memoryState {
	return memoryState{
		persons:       make(map[string]Person),
		resources:     make(map[string]Resource),
		menuItems:     make(map[string]MenuItem),
		ownerships:    make(map[string]Ownership),
		workRelations: make(map[string]WorkRelation),
		reservations:  make(map[string]Reservation),
		transfers:     make(map[string]Transfer),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Persons:       make(map[string]Person, len(state.persons)),
		Resources:     make(map[string]Resource, len(state.resources)),
		MenuItems:     make(map[string]MenuItem, len(state.menuItems)),
		Ownerships:    make(map[string]Ownership, len(state.ownerships)),
		WorkRelations: make(map[string]WorkRelation, len(state.workRelations)),
		Reservations:  make(map[string]Reservation, len(state.reservations)),
		Transfers:     make(map[string]Transfer, len(state.transfers)),
	}
	for k, v := range state.persons {
		s.Persons[k] = v.Clone()
	}
	for k, v := range state.resources {
		s.Resources[k] = v.Clone()
	}
	for k, v := range state.menuItems {
		s.MenuItems[k] = v.Clone()
	}
	for k, v := range state.ownerships {
		s.Ownerships[k] = v.Clone()
	}
	for k, v := range state.workRelations {
		s.WorkRelations[k] = v.Clone()
	}
	for k, v := range state.reservations {
		s.Reservations[k] = v.Clone()
	}
	for k, v := range state.transfers {
		s.Transfers[k] = v.Clone()
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Persons {
		state.persons[k] = v.Clone()
	}
	for k, v := range s.Resources {
		state.resources[k] = v.Clone()
	}
	for k, v := range s.MenuItems {
		state.menuItems[k] = v.Clone()
	}
	for k, v := range s.Ownerships {
		state.ownerships[k] = v.Clone()
	}
	for k, v := range s.WorkRelations {
		state.workRelations[k] = v.Clone()
	}
	for k, v := range s.Reservations {
		state.reservations[k] = v.Clone()
	}
	for k, v := range s.Transfers {
		state.transfers[k] = v.Clone()
	}
	return state
}

// migrateSnapshot backfills nil buckets and drops dangling references so that
// snapshots produced by older deployments hydrate cleanly.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Persons == nil {
		snapshot.Persons = map[string]Person{}
	}
	if snapshot.Resources == nil {
		snapshot.Resources = map[string]Resource{}
	}
	if snapshot.MenuItems == nil {
		snapshot.MenuItems = map[string]MenuItem{}
	}
	if snapshot.Ownerships == nil {
		snapshot.Ownerships = map[string]Ownership{}
	}
	if snapshot.WorkRelations == nil {
		snapshot.WorkRelations = map[string]WorkRelation{}
	}
	if snapshot.Reservations == nil {
		snapshot.Reservations = map[string]Reservation{}
	}
	if snapshot.Transfers == nil {
		snapshot.Transfers = map[string]Transfer{}
	}

	personExists := func(key string) bool {
		_, ok := snapshot.Persons[key]
		return ok
	}
	resourceExists := func(key string) bool {
		_, ok := snapshot.Resources[key]
		return ok
	}

	for key, o := range snapshot.Ownerships {
		if o.PersonKey == "" || !personExists(o.PersonKey) {
			delete(snapshot.Ownerships, key)
			continue
		}
		if o.ResourceKey != "" && !resourceExists(o.ResourceKey) {
			o.ResourceKey = ""
		}
		snapshot.Ownerships[key] = o
	}
	for key, w := range snapshot.WorkRelations {
		if w.PersonKey == "" || !personExists(w.PersonKey) {
			delete(snapshot.WorkRelations, key)
		}
	}
	for key, r := range snapshot.Reservations {
		if r.ResourceKey == "" || !resourceExists(r.ResourceKey) {
			delete(snapshot.Reservations, key)
			continue
		}
		if r.PersonKey != "" && !personExists(r.PersonKey) {
			r.PersonKey = ""
			snapshot.Reservations[key] = r
		}
	}
	for key, t := range snapshot.Transfers {
		if t.FromPersonKey != "" && !personExists(t.FromPersonKey) {
			delete(snapshot.Transfers, key)
			continue
		}
		if t.ToPersonKey != "" && !personExists(t.ToPersonKey) {
			delete(snapshot.Transfers, key)
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.persons {
		cloned.persons[k] = v.Clone()
	}
	for k, v := range s.resources {
		cloned.resources[k] = v.Clone()
	}
	for k, v := range s.menuItems {
		cloned.menuItems[k] = v.Clone()
	}
	for k, v := range s.ownerships {
		cloned.ownerships[k] = v.Clone()
	}
	for k, v := range s.workRelations {
		cloned.workRelations[k] = v.Clone()
	}
	for k, v := range s.reservations {
		cloned.reservations[k] = v.Clone()
	}
	for k, v := range s.transfers {
		cloned.transfers[k] = v.Clone()
	}
	return cloned
}

// Store provides an in-memory transactional store for the club domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newKey() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// Close is a no-op; the in-memory store holds no external resources.
func (s *Store) Close() error { return nil }

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider; used by tests for deterministic timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListPersons returns all persons within the transaction snapshot.
func (v transactionView) ListPersons() []Person {
	out := make([]Person, 0, len(v.state.persons))
	for _, p := range v.state.persons {
		out = append(out, p.Clone())
	}
	return out
}

// ListResources returns all resources within the transaction snapshot.
func (v transactionView) ListResources() []Resource {
	out := make([]Resource, 0, len(v.state.resources))
	for _, r := range v.state.resources {
		out = append(out, r.Clone())
	}
	return out
}

// ListReservations returns all reservations within the transaction snapshot.
func (v transactionView) ListReservations() []Reservation {
	out := make([]Reservation, 0, len(v.state.reservations))
	for _, r := range v.state.reservations {
		out = append(out, r.Clone())
	}
	return out
}

// ListOwnerships returns all ownerships within the transaction snapshot.
func (v transactionView) ListOwnerships() []Ownership {
	out := make([]Ownership, 0, len(v.state.ownerships))
	for _, o := range v.state.ownerships {
		out = append(out, o.Clone())
	}
	return out
}

// FindPerson retrieves a person by key from the snapshot.
func (v transactionView) FindPerson(key string) (Person, bool) {
	p, ok := v.state.persons[key]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// FindResource retrieves a resource by key from the snapshot.
func (v transactionView) FindResource(key string) (Resource, bool) {
	r, ok := v.state.resources[key]
	if !ok {
		return Resource{}, false
	}
	return r.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPerson exposes person lookup within the transaction scope.
func (tx *transaction) FindPerson(key string) (Person, bool) {
	p, ok := tx.state.persons[key]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// FindResource exposes resource lookup within the transaction scope.
func (tx *transaction) FindResource(key string) (Resource, bool) {
	r, ok := tx.state.resources[key]
	if !ok {
		return Resource{}, false
	}
	return r.Clone(), true
}

// CreatePerson stores a new person within the transaction.
func (tx *transaction) CreatePerson(p Person) (Person, error) {
	if p.Key == "" {
		p.Key = tx.store.newKey()
	}
	if _, exists := tx.state.persons[p.Key]; exists {
		return Person{}, fmt.Errorf("person %q already exists", p.Key)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.persons[p.Key] = p.Clone()
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionCreate, After: p.Clone()})
	return p.Clone(), nil
}

// UpdatePerson mutates a person using the provided mutator function.
func (tx *transaction) UpdatePerson(key string, mutator func(*Person) error) (Person, error) {
	current, ok := tx.state.persons[key]
	if !ok {
		return Person{}, fmt.Errorf("person %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Person{}, err
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.persons[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeletePerson removes a person from the transaction state.
func (tx *transaction) DeletePerson(key string) error {
	current, ok := tx.state.persons[key]
	if !ok {
		return fmt.Errorf("person %q not found", key)
	}
	for _, o := range tx.state.ownerships {
		if o.PersonKey == key {
			return fmt.Errorf("person %q still referenced by ownership %q", key, o.Key)
		}
	}
	for _, w := range tx.state.workRelations {
		if w.PersonKey == key {
			return fmt.Errorf("person %q still referenced by work relation %q", key, w.Key)
		}
	}
	delete(tx.state.persons, key)
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateResource stores a new resource record.
func (tx *transaction) CreateResource(r Resource) (Resource, error) {
	if r.Key == "" {
		r.Key = tx.store.newKey()
	}
	if _, exists := tx.state.resources[r.Key]; exists {
		return Resource{}, fmt.Errorf("resource %q already exists", r.Key)
	}
	if r.Name == "" {
		return Resource{}, errors.New("resource requires a name")
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.resources[r.Key] = r.Clone()
	tx.recordChange(Change{Entity: domain.EntityResource, Action: domain.ActionCreate, After: r.Clone()})
	return r.Clone(), nil
}

// UpdateResource mutates an existing resource.
func (tx *transaction) UpdateResource(key string, mutator func(*Resource) error) (Resource, error) {
	current, ok := tx.state.resources[key]
	if !ok {
		return Resource{}, fmt.Errorf("resource %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Resource{}, err
	}
	if current.Name == "" {
		return Resource{}, errors.New("resource requires a name")
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.resources[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityResource, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteResource removes a resource from state.
func (tx *transaction) DeleteResource(key string) error {
	current, ok := tx.state.resources[key]
	if !ok {
		return fmt.Errorf("resource %q not found", key)
	}
	for _, o := range tx.state.ownerships {
		if o.ResourceKey == key {
			return fmt.Errorf("resource %q still referenced by ownership %q", key, o.Key)
		}
	}
	for _, r := range tx.state.reservations {
		if r.ResourceKey == key {
			return fmt.Errorf("resource %q still referenced by reservation %q", key, r.Key)
		}
	}
	delete(tx.state.resources, key)
	tx.recordChange(Change{Entity: domain.EntityResource, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateMenuItem stores a new menu item.
func (tx *transaction) CreateMenuItem(m MenuItem) (MenuItem, error) {
	if m.Key == "" {
		m.Key = tx.store.newKey()
	}
	if _, exists := tx.state.menuItems[m.Key]; exists {
		return MenuItem{}, fmt.Errorf("menu item %q already exists", m.Key)
	}
	if m.PriceCents < 0 {
		return MenuItem{}, errors.New("menu item price must not be negative")
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.menuItems[m.Key] = m.Clone()
	tx.recordChange(Change{Entity: domain.EntityMenuItem, Action: domain.ActionCreate, After: m.Clone()})
	return m.Clone(), nil
}

// UpdateMenuItem mutates an existing menu item.
func (tx *transaction) UpdateMenuItem(key string, mutator func(*MenuItem) error) (MenuItem, error) {
	current, ok := tx.state.menuItems[key]
	if !ok {
		return MenuItem{}, fmt.Errorf("menu item %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return MenuItem{}, err
	}
	if current.PriceCents < 0 {
		return MenuItem{}, errors.New("menu item price must not be negative")
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.menuItems[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityMenuItem, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteMenuItem removes a menu item from state.
func (tx *transaction) DeleteMenuItem(key string) error {
	current, ok := tx.state.menuItems[key]
	if !ok {
		return fmt.Errorf("menu item %q not found", key)
	}
	delete(tx.state.menuItems, key)
	tx.recordChange(Change{Entity: domain.EntityMenuItem, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateOwnership stores a new ownership relation.
func (tx *transaction) CreateOwnership(o Ownership) (Ownership, error) {
	if o.Key == "" {
		o.Key = tx.store.newKey()
	}
	if _, exists := tx.state.ownerships[o.Key]; exists {
		return Ownership{}, fmt.Errorf("ownership %q already exists", o.Key)
	}
	if o.PersonKey == "" {
		return Ownership{}, errors.New("ownership requires a person key")
	}
	if _, ok := tx.state.persons[o.PersonKey]; !ok {
		return Ownership{}, fmt.Errorf("person %q not found", o.PersonKey)
	}
	if o.ResourceKey != "" {
		if _, ok := tx.state.resources[o.ResourceKey]; !ok {
			return Ownership{}, fmt.Errorf("resource %q not found", o.ResourceKey)
		}
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.ownerships[o.Key] = o.Clone()
	tx.recordChange(Change{Entity: domain.EntityOwnership, Action: domain.ActionCreate, After: o.Clone()})
	return o.Clone(), nil
}

// UpdateOwnership mutates an existing ownership. There is no delete for
// ownerships; relationship records are archived or ended via update.
func (tx *transaction) UpdateOwnership(key string, mutator func(*Ownership) error) (Ownership, error) {
	current, ok := tx.state.ownerships[key]
	if !ok {
		return Ownership{}, fmt.Errorf("ownership %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Ownership{}, err
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.ownerships[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityOwnership, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// CreateWorkRelation stores a new work relation.
func (tx *transaction) CreateWorkRelation(w WorkRelation) (WorkRelation, error) {
	if w.Key == "" {
		w.Key = tx.store.newKey()
	}
	if _, exists := tx.state.workRelations[w.Key]; exists {
		return WorkRelation{}, fmt.Errorf("work relation %q already exists", w.Key)
	}
	if w.PersonKey == "" {
		return WorkRelation{}, errors.New("work relation requires a person key")
	}
	if _, ok := tx.state.persons[w.PersonKey]; !ok {
		return WorkRelation{}, fmt.Errorf("person %q not found", w.PersonKey)
	}
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.workRelations[w.Key] = w.Clone()
	tx.recordChange(Change{Entity: domain.EntityWorkRelation, Action: domain.ActionCreate, After: w.Clone()})
	return w.Clone(), nil
}

// UpdateWorkRelation mutates an existing work relation.
func (tx *transaction) UpdateWorkRelation(key string, mutator func(*WorkRelation) error) (WorkRelation, error) {
	current, ok := tx.state.workRelations[key]
	if !ok {
		return WorkRelation{}, fmt.Errorf("work relation %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return WorkRelation{}, err
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.workRelations[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityWorkRelation, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// CreateReservation stores a new reservation.
func (tx *transaction) CreateReservation(r Reservation) (Reservation, error) {
	if r.Key == "" {
		r.Key = tx.store.newKey()
	}
	if _, exists := tx.state.reservations[r.Key]; exists {
		return Reservation{}, fmt.Errorf("reservation %q already exists", r.Key)
	}
	if r.ResourceKey == "" {
		return Reservation{}, errors.New("reservation requires a resource key")
	}
	if _, ok := tx.state.resources[r.ResourceKey]; !ok {
		return Reservation{}, fmt.Errorf("resource %q not found", r.ResourceKey)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.reservations[r.Key] = r.Clone()
	tx.recordChange(Change{Entity: domain.EntityReservation, Action: domain.ActionCreate, After: r.Clone()})
	return r.Clone(), nil
}

// UpdateReservation mutates an existing reservation.
func (tx *transaction) UpdateReservation(key string, mutator func(*Reservation) error) (Reservation, error) {
	current, ok := tx.state.reservations[key]
	if !ok {
		return Reservation{}, fmt.Errorf("reservation %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Reservation{}, err
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.reservations[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityReservation, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteReservation removes a reservation from state.
func (tx *transaction) DeleteReservation(key string) error {
	current, ok := tx.state.reservations[key]
	if !ok {
		return fmt.Errorf("reservation %q not found", key)
	}
	delete(tx.state.reservations, key)
	tx.recordChange(Change{Entity: domain.EntityReservation, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateTransfer stores a new transfer record.
func (tx *transaction) CreateTransfer(t Transfer) (Transfer, error) {
	if t.Key == "" {
		t.Key = tx.store.newKey()
	}
	if _, exists := tx.state.transfers[t.Key]; exists {
		return Transfer{}, fmt.Errorf("transfer %q already exists", t.Key)
	}
	if t.FromPersonKey == "" || t.ToPersonKey == "" {
		return Transfer{}, errors.New("transfer requires both person keys")
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.transfers[t.Key] = t.Clone()
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionCreate, After: t.Clone()})
	return t.Clone(), nil
}

// UpdateTransfer mutates an existing transfer.
func (tx *transaction) UpdateTransfer(key string, mutator func(*Transfer) error) (Transfer, error) {
	current, ok := tx.state.transfers[key]
	if !ok {
		return Transfer{}, fmt.Errorf("transfer %q not found", key)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Transfer{}, err
	}
	current.Key = key
	current.UpdatedAt = tx.now
	tx.state.transfers[key] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteTransfer removes a transfer from state.
func (tx *transaction) DeleteTransfer(key string) error {
	current, ok := tx.state.transfers[key]
	if !ok {
		return fmt.Errorf("transfer %q not found", key)
	}
	delete(tx.state.transfers, key)
	tx.recordChange(Change{Entity: domain.EntityTransfer, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetPerson retrieves a person by key from committed state.
func (s *Store) GetPerson(key string) (Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.persons[key]
	if !ok {
		return Person{}, false
	}
	return p.Clone(), true
}

// ListPersons returns the persons scoped to the given tenant. Lists are
// ordered by key so repeated reads of unchanged state agree positionally.
func (s *Store) ListPersons(tenant string) []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Person, 0, len(s.state.persons))
	for _, p := range s.state.persons {
		if p.InTenant(tenant) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// GetResource retrieves a resource by key from committed state.
func (s *Store) GetResource(key string) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.resources[key]
	if !ok {
		return Resource{}, false
	}
	return r.Clone(), true
}

// ListResources returns the resources scoped to the given tenant.
func (s *Store) ListResources(tenant string) []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resource, 0, len(s.state.resources))
	for _, r := range s.state.resources {
		if r.InTenant(tenant) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ListMenuItems returns the menu items scoped to the given tenant.
func (s *Store) ListMenuItems(tenant string) []MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MenuItem, 0, len(s.state.menuItems))
	for _, m := range s.state.menuItems {
		if m.InTenant(tenant) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ListOwnerships returns the ownerships scoped to the given tenant.
func (s *Store) ListOwnerships(tenant string) []Ownership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ownership, 0, len(s.state.ownerships))
	for _, o := range s.state.ownerships {
		if o.InTenant(tenant) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ListWorkRelations returns the work relations scoped to the given tenant.
func (s *Store) ListWorkRelations(tenant string) []WorkRelation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WorkRelation, 0, len(s.state.workRelations))
	for _, w := range s.state.workRelations {
		if w.InTenant(tenant) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ListReservations returns the reservations scoped to the given tenant.
func (s *Store) ListReservations(tenant string) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reservation, 0, len(s.state.reservations))
	for _, r := range s.state.reservations {
		if r.InTenant(tenant) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ListTransfers returns the transfers scoped to the given tenant.
func (s *Store) ListTransfers(tenant string) []Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transfer, 0, len(s.state.transfers))
	for _, t := range s.state.transfers {
		if t.InTenant(tenant) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

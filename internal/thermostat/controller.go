package thermostat

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Controller owns the ordered set of rooms and drives the shared unit.
// Every exported method is serialized by one lock and re-evaluates the state
// before returning, so callers never observe an intermediate state.
type Controller struct {
	mu sync.Mutex

	limits    Limits
	commander UnitCommander
	clock     func() time.Time

	rooms []*Room
	index map[string]*Room

	state           State
	activeRoomID    string
	mode            Mode
	powerOn         bool
	masterConnected bool
	lastCommand     *Command
}

// Option customizes a Controller at construction.
type Option func(*Controller)

// WithCommander sets the collaborator that receives unit commands.
func WithCommander(uc UnitCommander) Option {
	return func(c *Controller) {
		if uc != nil {
			c.commander = uc
		}
	}
}

// WithClock sets the time source for events that do not carry their own timestamp.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New returns a powered-off controller with no rooms.
func New(limits Limits, opts ...Option) (*Controller, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		limits:    limits,
		commander: nopCommander{},
		clock:     time.Now,
		index:     make(map[string]*Room),
		state:     StateOff,
		mode:      ModeHeat,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Transition describes the effect of one event on the controller.
type Transition struct {
	From       State
	To         State
	PrevActive string
	Active     string
	// Issued is the command sent to the unit during this event, if any.
	Issued *Command
}

// Changed reports whether the state or the active room moved.
func (t Transition) Changed() bool {
	return t.From != t.To || t.PrevActive != t.Active
}

// Snapshot is a consistent copy of the controller.
type Snapshot struct {
	State           State
	ActiveRoomID    string
	Mode            Mode
	PowerOn         bool
	MasterConnected bool
	LastCommand     *Command
	Rooms           []Room
}

// Limits returns the tunables the controller was built with.
func (c *Controller) Limits() Limits { return c.limits }

// Snapshot copies the current state without re-evaluating it.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]Room, len(c.rooms))
	for i, r := range c.rooms {
		rooms[i] = *r
	}
	var last *Command
	if c.lastCommand != nil {
		cmd := *c.lastCommand
		last = &cmd
	}
	return Snapshot{
		State:           c.state,
		ActiveRoomID:    c.activeRoomID,
		Mode:            c.mode,
		PowerOn:         c.powerOn,
		MasterConnected: c.masterConnected,
		LastCommand:     last,
		Rooms:           rooms,
	}
}

// Room returns a copy of one room.
func (c *Controller) Room(sensorID string) (Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Room{}, err
	}
	return *r, nil
}

// Order returns the sensor IDs in display order.
func (c *Controller) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order()
}

// AddRoom appends a new room with no telemetry; it stays stale until its first reading.
func (c *Controller) AddRoom(sensorID, name, sensorType string, now time.Time) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := NewRoom(sensorID, name, sensorType, c.limits)
	if err != nil {
		return Transition{}, err
	}
	if _, ok := c.index[r.sensorID]; ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrDuplicateSensor, r.sensorID)
	}
	c.rooms = append(c.rooms, r)
	c.index[r.sensorID] = r
	return c.evaluate(now), nil
}

// DeleteRoom removes a room and re-selects synchronously if it was active.
func (c *Controller) DeleteRoom(sensorID string) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Transition{}, err
	}
	for i, cur := range c.rooms {
		if cur == r {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			break
		}
	}
	delete(c.index, r.sensorID)
	return c.evaluate(c.clock()), nil
}

// Rename relabels a room. Names do not affect selection.
func (c *Controller) Rename(sensorID, name string) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Transition{}, err
	}
	if err := r.Rename(name); err != nil {
		return Transition{}, err
	}
	return c.evaluate(c.clock()), nil
}

// SetTarget clamps and stores a room's target and returns the stored value.
func (c *Controller) SetTarget(sensorID string, target float64) (float64, Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return 0, Transition{}, err
	}
	applied, err := r.UpdateTarget(target)
	if err != nil {
		return applied, Transition{}, err
	}
	return applied, c.evaluate(c.clock()), nil
}

// SetPriority changes a room's selection priority.
func (c *Controller) SetPriority(sensorID string, priority int) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Transition{}, err
	}
	r.SetPriority(priority)
	return c.evaluate(c.clock()), nil
}

// Telemetry applies a reading taken at now. Out-of-order readings are not detected;
// the last one applied wins.
func (c *Controller) Telemetry(sensorID string, rd Reading, now time.Time) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Transition{}, err
	}
	r.UpdateTelemetry(rd, now)
	return c.evaluate(now), nil
}

// Report applies one hub report: a reading plus the hub's optional view of the room's
// target and priority. All fields land before a single evaluation, so at most one
// command is issued. A non-finite target rejects the whole report.
func (c *Controller) Report(sensorID string, rd Reading, target *float64, priority *int, now time.Time) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(sensorID)
	if err != nil {
		return Transition{}, err
	}
	if target != nil && !isFinite(*target) {
		return Transition{}, fmt.Errorf("%w: %v", ErrTargetOutOfRange, *target)
	}
	r.UpdateTelemetry(rd, now)
	if target != nil {
		if _, err := r.UpdateTarget(*target); err != nil {
			return Transition{}, err
		}
	}
	if priority != nil {
		r.SetPriority(*priority)
	}
	return c.evaluate(now), nil
}

// Reorder replaces the display order. ids must be a permutation of the current rooms;
// otherwise the order is left untouched.
func (c *Controller) Reorder(ids []string) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(ids) != len(c.rooms) {
		return Transition{}, fmt.Errorf("%w: order has %d ids, controller has %d rooms",
			ErrUnknownSensor, len(ids), len(c.rooms))
	}
	next := make([]*Room, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r, ok := c.index[id]
		if !ok {
			return Transition{}, fmt.Errorf("%w: %q", ErrUnknownSensor, id)
		}
		if _, dup := seen[id]; dup {
			return Transition{}, fmt.Errorf("%w: %q listed twice", ErrUnknownSensor, id)
		}
		seen[id] = struct{}{}
		next = append(next, r)
	}
	c.rooms = next
	return c.evaluate(c.clock()), nil
}

// SetPower switches the whole system on or off.
func (c *Controller) SetPower(on bool) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.powerOn = on
	return c.evaluate(c.clock())
}

// SetMode switches between heating and cooling.
func (c *Controller) SetMode(m Mode) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m != ModeHeat && m != ModeCool {
		return Transition{}, fmt.Errorf("%w: %s", ErrInvalidMode, m)
	}
	c.mode = m
	return c.evaluate(c.clock()), nil
}

// SetMasterConnected records whether the hub is reachable.
func (c *Controller) SetMasterConnected(connected bool) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.masterConnected = connected
	return c.evaluate(c.clock())
}

// Refresh re-evaluates against now, surfacing rooms that went stale since the last event.
func (c *Controller) Refresh(now time.Time) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluate(now)
}

// Restore replaces rooms, power and mode in one step. The master connection is kept.
func (c *Controller) Restore(records []RoomRecord, powerOn bool, mode Mode, now time.Time) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode != ModeHeat && mode != ModeCool {
		return Transition{}, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	rooms := make([]*Room, 0, len(records))
	index := make(map[string]*Room, len(records))
	for _, rec := range records {
		r, err := NewRoomFromRecord(rec, c.limits)
		if err != nil {
			return Transition{}, fmt.Errorf("restore room %q: %w", rec.SensorID, err)
		}
		if _, ok := index[r.sensorID]; ok {
			return Transition{}, fmt.Errorf("%w: %q", ErrDuplicateSensor, r.sensorID)
		}
		rooms = append(rooms, r)
		index[r.sensorID] = r
	}
	c.rooms = rooms
	c.index = index
	c.powerOn = powerOn
	c.mode = mode
	return c.evaluate(now), nil
}

// lookup must be called with c.mu held.
func (c *Controller) lookup(sensorID string) (*Room, error) {
	r, ok := c.index[strings.TrimSpace(sensorID)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, sensorID)
	}
	return r, nil
}

func (c *Controller) order() []string {
	ids := make([]string, len(c.rooms))
	for i, r := range c.rooms {
		ids[i] = r.sensorID
	}
	return ids
}

// evaluate applies the transition rule. Must be called with c.mu held.
func (c *Controller) evaluate(now time.Time) Transition {
	tr := Transition{From: c.state, PrevActive: c.activeRoomID}

	next, active := decide(c.rooms, c.powerOn, c.masterConnected, now)
	c.state = next
	c.activeRoomID = ""

	switch next {
	case StateDone:
		c.activeRoomID = active.sensorID
		cmd := Command{Mode: c.mode, TargetC: active.targetC}
		if c.lastCommand == nil || *c.lastCommand != cmd {
			c.commander.SetUnit(cmd.Mode, cmd.TargetC)
			c.lastCommand = &cmd
			issued := cmd
			tr.Issued = &issued
		}
	case StateOff, StateNoMaster, StateNoSensors:
		c.lastCommand = nil
	}

	tr.To = next
	tr.Active = c.activeRoomID
	return tr
}

// Evaluate is the transition rule as a pure function of a set of rooms and the two
// external switches. It returns the state and the active sensor ID ("" unless DONE).
func Evaluate(rooms []Room, powerOn, masterConnected bool, now time.Time) (State, string) {
	ptrs := make([]*Room, len(rooms))
	for i := range rooms {
		ptrs[i] = &rooms[i]
	}
	st, active := decide(ptrs, powerOn, masterConnected, now)
	if active == nil {
		return st, ""
	}
	return st, active.sensorID
}

func decide(rooms []*Room, powerOn, masterConnected bool, now time.Time) (State, *Room) {
	if !powerOn {
		return StateOff, nil
	}
	if !masterConnected {
		return StateNoMaster, nil
	}
	active := selectActive(rooms, now)
	if active == nil {
		return StateNoSensors, nil
	}
	return StateDone, active
}

// selectActive picks the fresh room with the highest priority, breaking ties by the
// smallest sensor ID so the result does not depend on insertion or event order.
func selectActive(rooms []*Room, now time.Time) *Room {
	var best *Room
	for _, r := range rooms {
		if r.Stale(now) {
			continue
		}
		if best == nil ||
			r.priority > best.priority ||
			(r.priority == best.priority && r.sensorID < best.sensorID) {
			best = r
		}
	}
	return best
}

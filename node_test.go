package ranger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore keeps the identity in memory, shared across Nodes the way a file
// is shared across wakes
type memStore struct {
	id       Identity
	mountErr error
	loadErr  error
	saveErr  error
	mounts   int
	saves    int
}

func (s *memStore) Mount() error { s.mounts++; return s.mountErr }

func (s *memStore) Load() (Identity, bool, error) {
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	return s.id, s.id != "", nil
}

func (s *memStore) Save(id Identity) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.id = id
	return nil
}

type fakeSensor struct {
	reading      Reading
	err          error
	configureErr error
	measures     int
}

func (s *fakeSensor) Configure() error { return s.configureErr }

func (s *fakeSensor) Measure() (Reading, error) {
	s.measures++
	return s.reading, s.err
}

type fakeCollector struct {
	id          Identity
	registerErr error
	reportErr   error
	registers   int
	reports     []Measurement
	panicOn     string
}

func (f *fakeCollector) Register(context.Context) (Identity, error) {
	f.registers++
	if f.panicOn == "register" {
		panic("collector exploded")
	}
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return f.id, nil
}

func (f *fakeCollector) Report(ctx context.Context, m Measurement) error {
	f.reports = append(f.reports, m)
	return f.reportErr
}

type fakeLink struct {
	err   error
	calls int
}

func (l *fakeLink) Associate(context.Context) error { l.calls++; return l.err }

type fakeSleeper struct {
	slept []time.Duration
	err   error
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

type rig struct {
	store     *memStore
	sensor    *fakeSensor
	collector *fakeCollector
	link      *fakeLink
	sleeper   *fakeSleeper
}

func newRig() *rig {
	return &rig{
		store:     &memStore{},
		sensor:    &fakeSensor{reading: Reading{Elapsed: 588 * time.Microsecond, Height: 9}},
		collector: &fakeCollector{id: "abc123"},
		link:      &fakeLink{},
		sleeper:   &fakeSleeper{},
	}
}

// node is a fresh controller per wake; only the store carries over
func (r *rig) node() *Node {
	return &Node{
		Sensor:    r.sensor,
		Link:      r.link,
		Store:     r.store,
		Registrar: r.collector,
		Reporter:  r.collector,
		Sleeper:   r.sleeper,
		SleepFor:  time.Hour,
		Log:       quiet,
	}
}

var allStates = []State{Booting, EnsuringIdentity, Measuring, Reporting, Sleeping}

func TestFirstWakeRegistersAndReports(t *testing.T) {
	c := qt.New(t)
	r := newRig()

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(cy.Errs, qt.HasLen, 0)
	c.Assert(cy.Identity, qt.Equals, Identity("abc123"))
	c.Assert(cy.Registered, qt.IsTrue)
	c.Assert(cy.Reported, qt.IsTrue)
	c.Assert(r.store.id, qt.Equals, Identity("abc123"))
	c.Assert(r.collector.registers, qt.Equals, 1)
	c.Assert(r.collector.reports, qt.DeepEquals, []Measurement{{Identity: "abc123", Height: 9}})
	c.Assert(r.sleeper.slept, qt.DeepEquals, []time.Duration{time.Hour})
}

func TestNextWakeUsesStoredIdentity(t *testing.T) {
	c := qt.New(t)
	r := newRig()

	r.node().Cycle(context.Background())
	r.collector.id = "should-not-be-used"
	cy := r.node().Cycle(context.Background())

	c.Assert(cy.Registered, qt.IsFalse)
	c.Assert(cy.Identity, qt.Equals, Identity("abc123"))
	c.Assert(r.collector.registers, qt.Equals, 1)
	c.Assert(r.store.saves, qt.Equals, 1)
	c.Assert(r.collector.reports, qt.HasLen, 2)
	c.Assert(r.collector.reports[1].Identity, qt.Equals, Identity("abc123"))
	c.Assert(r.sleeper.slept, qt.HasLen, 2)
}

func TestStoredIdentityNoEcho(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.id = "xyz"
	r.sensor.err = &Error{Kind: KindSensor, Err: ErrNoEcho}

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(cy.Identity, qt.Equals, Identity("xyz"))
	c.Assert(cy.Measured, qt.IsFalse)
	c.Assert(cy.Reported, qt.IsFalse)
	c.Assert(r.collector.registers, qt.Equals, 0)
	c.Assert(r.collector.reports, qt.HasLen, 0)
	c.Assert(cy.Errs, qt.HasLen, 1)
	c.Assert(errors.Is(cy.Errs[0], ErrNoEcho), qt.IsTrue)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestRegistrationRefused(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.collector.registerErr = &Error{Kind: KindRegistration, Code: 500}

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(cy.Identity, qt.Equals, Identity(""))
	c.Assert(cy.Measured, qt.IsTrue)
	c.Assert(cy.Reported, qt.IsFalse)
	c.Assert(r.store.saves, qt.Equals, 0)
	c.Assert(r.collector.reports, qt.HasLen, 0)
	c.Assert(StatusCode(cy.Errs[0]), qt.Equals, 500)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)

	// nothing was persisted, so the next wake tries again
	r.collector.registerErr = nil
	cy = r.node().Cycle(context.Background())
	c.Assert(cy.Registered, qt.IsTrue)
	c.Assert(r.collector.registers, qt.Equals, 2)
	c.Assert(r.collector.reports, qt.HasLen, 1)
}

func TestReportFailureStillSleeps(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.id = "xyz"
	r.collector.reportErr = errors.New("connection reset by peer")

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(cy.Reported, qt.IsFalse)
	c.Assert(cy.Errs, qt.HasLen, 1)
	c.Assert(IsKind(cy.Errs[0], KindReport), qt.IsTrue)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestNoNetworkSkipsToSleep(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.link.err = errors.New("no access point")

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, []State{Booting, Sleeping})
	c.Assert(IsKind(cy.Errs[0], KindAssociation), qt.IsTrue)
	c.Assert(r.store.mounts, qt.Equals, 0)
	c.Assert(r.sensor.measures, qt.Equals, 0)
	c.Assert(r.collector.registers, qt.Equals, 0)
	c.Assert(r.collector.reports, qt.HasLen, 0)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestUnreadableIdentityReregisters(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.loadErr = &Error{Kind: KindStorageRead, Err: errors.New("bad crc")}

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.Registered, qt.IsTrue)
	c.Assert(cy.Reported, qt.IsTrue)
	c.Assert(IsKind(cy.Errs[0], KindStorageRead), qt.IsTrue)
	c.Assert(r.store.id, qt.Equals, Identity("abc123"))
}

func TestSaveFailureKeepsIdentityForCycle(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.saveErr = errors.New("flash worn out")

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.Identity, qt.Equals, Identity("abc123"))
	c.Assert(cy.Reported, qt.IsTrue)
	c.Assert(IsKind(cy.Errs[0], KindStorageWrite), qt.IsTrue)
	c.Assert(r.collector.reports, qt.HasLen, 1)
}

func TestMountFailureContinues(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.mountErr = errors.New("no filesystem")

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(IsKind(cy.Errs[0], KindStorageMount), qt.IsTrue)
	c.Assert(cy.Reported, qt.IsTrue)
}

func TestSensorSetupFailure(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.store.id = "xyz"
	r.sensor.configureErr = errors.New("no GPIO trigger pin named: GPIO99")

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, allStates)
	c.Assert(IsKind(cy.Errs[0], KindSensor), qt.IsTrue)
	c.Assert(r.sensor.measures, qt.Equals, 0)
	c.Assert(r.collector.reports, qt.HasLen, 0)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestPanicStillSleeps(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.collector.panicOn = "register"

	cy := r.node().Cycle(context.Background())

	c.Assert(cy.States, qt.DeepEquals, []State{Booting, EnsuringIdentity, Sleeping})
	c.Assert(cy.Errs[0], qt.ErrorMatches, "wake aborted: collector exploded")
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestWakeIgnoresCancel(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cy := r.node().Cycle(ctx)

	// the wake runs to completion; only the sleep sees the cancel
	c.Assert(cy.Reported, qt.IsTrue)
	c.Assert(cy.Errs, qt.HasLen, 0)
	c.Assert(r.sleeper.slept, qt.HasLen, 1)
}

func TestSleepFailureRecorded(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.sleeper.err = errors.New("rtcwake: permission denied")

	cy := r.node().Cycle(context.Background())
	c.Assert(cy.Errs, qt.HasLen, 1)
	c.Assert(cy.Errs[0], qt.ErrorMatches, "rtcwake: permission denied")
}

func TestNoLinkConfigured(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	n := r.node()
	n.Link = nil

	cy := n.Cycle(context.Background())
	c.Assert(cy.Reported, qt.IsTrue)
}

func TestStateString(t *testing.T) {
	c := qt.New(t)
	c.Assert(EnsuringIdentity.String(), qt.Equals, "ensuring identity")
	c.Assert(State(42).String(), qt.Equals, "state(42)")
}

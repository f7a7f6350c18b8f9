package ranger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State is a step of the wake cycle
type State uint8

const (
	Booting State = iota
	EnsuringIdentity
	Measuring
	Reporting
	Sleeping
)

var stateNames = [...]string{
	Booting:          "booting",
	EnsuringIdentity: "ensuring identity",
	Measuring:        "measuring",
	Reporting:        "reporting",
	Sleeping:         "sleeping",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Cycle records what happened during one wake
type Cycle struct {
	States     []State
	Identity   Identity
	Registered bool // Identity came from the collector this cycle
	Reading    Reading
	Measured   bool
	Reported   bool
	Errs       []error
	sensorErr  error
}

func (c *Cycle) enter(s State) {
	c.States = append(c.States, s)
}

func (c *Cycle) fail(err error) {
	c.Errs = append(c.Errs, err)
}

// Node is the lifecycle controller.  Sensor, Store, Registrar, Reporter and
// Sleeper are required; Link may be nil when the network is always up.
type Node struct {
	Sensor    Sensor
	Link      Link
	Store     IdentityStore
	Registrar Registrar
	Reporter  Reporter
	Sleeper   Sleeper
	SleepFor  time.Duration
	Log       *slog.Logger
}

func (n *Node) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

func (n *Node) check() error {
	switch {
	case n.Sensor == nil:
		return errors.New("node has no sensor")
	case n.Store == nil:
		return errors.New("node has no identity store")
	case n.Registrar == nil:
		return errors.New("node has no registrar")
	case n.Reporter == nil:
		return errors.New("node has no reporter")
	case n.Sleeper == nil:
		return errors.New("node has no sleeper")
	case n.SleepFor <= 0:
		return fmt.Errorf("bad sleep duration %s", n.SleepFor)
	}
	return nil
}

// Cycle runs one wake: boot, make sure there is an identity, measure, report,
// then sleep.  A wake always ends in the sleep call, whatever failed before
// it.  The wake steps ignore ctx cancellation; only the sleep observes it.
func (n *Node) Cycle(ctx context.Context) *Cycle {
	var c Cycle

	n.wake(context.WithoutCancel(ctx), &c)

	c.enter(Sleeping)
	n.logger().Info("Sleeping", "for", n.SleepFor)
	if err := n.Sleeper.Sleep(ctx, n.SleepFor); err != nil &&
		!errors.Is(err, context.Canceled) {
		n.logger().Error("Sleep failed", "err", err)
		c.fail(err)
	}

	return &c
}

func (n *Node) wake(ctx context.Context, c *Cycle) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("wake aborted: %v", r)
			n.logger().Error("Wake aborted", "state", c.States[len(c.States)-1], "panic", r)
			c.fail(err)
		}
	}()

	c.enter(Booting)
	if !n.boot(ctx, c) {
		return
	}

	c.enter(EnsuringIdentity)
	n.ensureIdentity(ctx, c)

	c.enter(Measuring)
	n.measure(c)

	c.enter(Reporting)
	n.report(ctx, c)
}

// boot returns false when the cycle cannot go on without the network
func (n *Node) boot(ctx context.Context, c *Cycle) bool {
	log := n.logger()

	if err := n.Sensor.Configure(); err != nil {
		c.sensorErr = asKind(KindSensor, err)
		log.Warn("Sensor setup failed", "err", c.sensorErr)
		c.fail(c.sensorErr)
	}

	if n.Link != nil {
		if err := n.Link.Associate(ctx); err != nil {
			err = asKind(KindAssociation, err)
			log.Error("No network, skipping to sleep", "err", err)
			c.fail(err)
			return false
		}
	}

	if err := n.Store.Mount(); err != nil {
		err = asKind(KindStorageMount, err)
		log.Warn("Identity store unavailable", "err", err)
		c.fail(err)
	}

	return true
}

func (n *Node) ensureIdentity(ctx context.Context, c *Cycle) {
	log := n.logger()

	id, ok, err := n.Store.Load()
	switch {
	case err != nil:
		err = asKind(KindStorageRead, err)
		log.Warn("Stored identity unreadable, registering again", "err", err)
		c.fail(err)
	case ok:
		log.Info("Identity restored", "id", id)
		c.Identity = id
		return
	default:
		log.Info("No stored identity, registering")
	}

	id, err = n.Registrar.Register(ctx)
	if err != nil {
		err = asKind(KindRegistration, err)
		log.Error("Registration failed", "err", err)
		c.fail(err)
		return
	}
	log.Info("Registered", "id", id)
	c.Identity, c.Registered = id, true

	if err := n.Store.Save(id); err != nil {
		err = asKind(KindStorageWrite, err)
		log.Warn("Identity not saved, using it for this cycle only", "err", err)
		c.fail(err)
	}
}

func (n *Node) measure(c *Cycle) {
	log := n.logger()

	if c.sensorErr != nil {
		log.Warn("Sensor not ready, no measurement")
		return
	}

	r, err := n.Sensor.Measure()
	if err != nil {
		err = asKind(KindSensor, err)
		log.Warn("Measurement failed", "err", err)
		c.fail(err)
		return
	}
	log.Info("Measured", "height_cm", r.Height, "echo", r.Elapsed)
	c.Reading, c.Measured = r, true
}

func (n *Node) report(ctx context.Context, c *Cycle) {
	log := n.logger()

	switch {
	case c.Identity == "":
		log.Warn("No identity, report skipped")
		return
	case !c.Measured:
		log.Warn("No reading, report skipped")
		return
	}

	m := Measurement{Identity: c.Identity, Height: c.Reading.Height}
	if err := n.Reporter.Report(ctx, m); err != nil {
		err = asKind(KindReport, err)
		log.Error("Report failed", "err", err)
		c.fail(err)
		return
	}
	log.Info("Report sent", "id", m.Identity, "height_cm", m.Height)
	c.Reported = true
}

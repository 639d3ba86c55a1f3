package state

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/kite-simulator/core"
	"github.com/signalsfoundry/kite-simulator/internal/flightcontrol"
)

// snapshotVersion is bumped whenever Snapshot changes incompatibly.
const snapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot does not fit the
// simulation it is restored into.
var ErrSnapshotMismatch = errors.New("snapshot does not match simulation")

// Snapshot is everything needed to resume a simulation exactly. It does
// not carry the configuration; restore into a simulation built from the
// same config.
type Snapshot struct {
	Version int

	Time  float64
	Frame uint64
	Cost  Cost

	Position       r3.Vec
	Orientation    quat.Number
	LinearVelocity r3.Vec
	AngularRate    r3.Vec

	TetherPositions  []r3.Vec
	TetherVelocities []r3.Vec

	// ControllerPathIndex is the target waypoint. It takes precedence
	// over Controller.Path.Index.
	ControllerPathIndex int

	Thrust     float64
	Surfaces   map[string]core.SurfaceState
	Controller flightcontrol.ControllerState
}

// Snapshot captures the current state.
func (s *Simulation) Snapshot() Snapshot {
	surfaces := make(map[string]core.SurfaceState, len(s.airplane.Surfaces()))
	for _, surface := range s.airplane.Surfaces() {
		surfaces[surface.Name()] = surface.State()
	}
	body := s.airplane.State()
	tether := s.tether.State()
	ctrl := s.controller.State()
	return Snapshot{
		Version:             snapshotVersion,
		Time:                s.time,
		Frame:               s.frame,
		Cost:                s.cost,
		Position:            body.Position,
		Orientation:         body.Orientation,
		LinearVelocity:      body.Velocity,
		AngularRate:         body.AngularRate,
		TetherPositions:     tether.Positions,
		TetherVelocities:    tether.Velocities,
		ControllerPathIndex: ctrl.Path.Index,
		Thrust:              s.airplane.Thrust(),
		Surfaces:            surfaces,
		Controller:          ctrl,
	}
}

// Restore replaces the simulation state with snap.
func (s *Simulation) Restore(snap Snapshot) error {
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, snap.Version, snapshotVersion)
	}
	if len(snap.Surfaces) != len(s.airplane.Surfaces()) {
		return fmt.Errorf("%w: %d surfaces, want %d", ErrSnapshotMismatch, len(snap.Surfaces), len(s.airplane.Surfaces()))
	}
	for name := range snap.Surfaces {
		if _, ok := s.airplane.Surface(name); !ok {
			return fmt.Errorf("%w: unknown surface %q", ErrSnapshotMismatch, name)
		}
	}
	tether := core.TetherState{Positions: snap.TetherPositions, Velocities: snap.TetherVelocities}
	if err := s.tether.SetState(tether); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotMismatch, err)
	}
	ctrl := snap.Controller
	ctrl.Path.Index = snap.ControllerPathIndex
	if err := s.controller.SetState(ctrl); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotMismatch, err)
	}
	for name, st := range snap.Surfaces {
		surface, _ := s.airplane.Surface(name)
		if err := surface.SetState(st); err != nil {
			return fmt.Errorf("%w: %v", ErrSnapshotMismatch, err)
		}
	}
	s.airplane.SetState(core.BodyState{
		Position:    snap.Position,
		Orientation: snap.Orientation,
		Velocity:    snap.LinearVelocity,
		AngularRate: snap.AngularRate,
	})
	s.airplane.SetThrust(snap.Thrust)
	s.time = snap.Time
	s.frame = snap.Frame
	s.cost = snap.Cost
	return nil
}

// WriteSnapshot encodes snap as zstd-compressed msgpack.
func WriteSnapshot(w io.Writer, snap Snapshot) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("WriteSnapshot: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("WriteSnapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("WriteSnapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("ReadSnapshot: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("ReadSnapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("ReadSnapshot: %w: version %d", ErrSnapshotMismatch, snap.Version)
	}
	return snap, nil
}

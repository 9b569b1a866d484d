// Package wire encodes post-tick frames in the protobuf wire format so the
// replay recorder and the viewer feed share one compact representation.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Frame message.
const (
	frameTick          protowire.Number = 1
	frameTime          protowire.Number = 2
	frameVehicles      protowire.Number = 3
	frameProjectiles   protowire.Number = 4
	frameExplosions    protowire.Number = 5
	frameBfgBeams      protowire.Number = 6
	frameRailguns      protowire.Number = 7
	frameGuidedMissile protowire.Number = 8
)

// Vehicle is the pose and status of a vehicle at the end of a tick.
type Vehicle struct {
	Entity      uint64
	Type        uint32
	X, Y        float64
	Angle       float64
	TurretAngle float64
	Weapon      uint32
	Destroyed   bool
}

// Projectile is the position of a projectile at the end of a tick.
type Projectile struct {
	Entity uint64
	Weapon uint32
	X, Y   float64
}

// Explosion mirrors an explosion event.
type Explosion struct {
	X, Y  float64
	Scale float64
	Start float64
	Bfg   bool
}

// Segment mirrors a beam or railgun trace.
type Segment struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Frame is everything a viewer needs to draw one tick.
type Frame struct {
	Tick          uint64
	FrameTime     float64
	Vehicles      []Vehicle
	Projectiles   []Projectile
	Explosions    []Explosion
	BfgBeams      []Segment
	Railguns      []Segment
	GuidedMissile uint64
}

// ErrTruncated reports a payload that ends in the middle of a field.
var ErrTruncated = errors.New("wire: truncated payload")

// Marshal encodes the frame. A nil frame encodes to an empty payload.
func Marshal(f *Frame) []byte {
	if f == nil {
		return nil
	}
	var b []byte
	b = appendVarint(b, frameTick, f.Tick)
	b = appendDouble(b, frameTime, f.FrameTime)
	for _, v := range f.Vehicles {
		b = appendMessage(b, frameVehicles, v.marshal())
	}
	for _, p := range f.Projectiles {
		b = appendMessage(b, frameProjectiles, p.marshal())
	}
	for _, e := range f.Explosions {
		b = appendMessage(b, frameExplosions, e.marshal())
	}
	for _, s := range f.BfgBeams {
		b = appendMessage(b, frameBfgBeams, s.marshal())
	}
	for _, s := range f.Railguns {
		b = appendMessage(b, frameRailguns, s.marshal())
	}
	b = appendVarint(b, frameGuidedMissile, f.GuidedMissile)
	return b
}

// Unmarshal decodes a frame, skipping unknown fields.
func Unmarshal(b []byte) (*Frame, error) {
	f := &Frame{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, value []byte, scalar uint64) error {
		switch {
		case num == frameTick && typ == protowire.VarintType:
			f.Tick = scalar
		case num == frameTime && typ == protowire.Fixed64Type:
			f.FrameTime = math.Float64frombits(scalar)
		case num == frameGuidedMissile && typ == protowire.VarintType:
			f.GuidedMissile = scalar
		case typ == protowire.BytesType:
			return f.unmarshalChild(num, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Frame) unmarshalChild(num protowire.Number, value []byte) error {
	switch num {
	case frameVehicles:
		var v Vehicle
		if err := v.unmarshal(value); err != nil {
			return fmt.Errorf("vehicle: %w", err)
		}
		f.Vehicles = append(f.Vehicles, v)
	case frameProjectiles:
		var p Projectile
		if err := p.unmarshal(value); err != nil {
			return fmt.Errorf("projectile: %w", err)
		}
		f.Projectiles = append(f.Projectiles, p)
	case frameExplosions:
		var e Explosion
		if err := e.unmarshal(value); err != nil {
			return fmt.Errorf("explosion: %w", err)
		}
		f.Explosions = append(f.Explosions, e)
	case frameBfgBeams, frameRailguns:
		var s Segment
		if err := s.unmarshal(value); err != nil {
			return fmt.Errorf("segment: %w", err)
		}
		if num == frameBfgBeams {
			f.BfgBeams = append(f.BfgBeams, s)
		} else {
			f.Railguns = append(f.Railguns, s)
		}
	}
	return nil
}

func (v Vehicle) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, v.Entity)
	b = appendVarint(b, 2, uint64(v.Type))
	b = appendDouble(b, 3, v.X)
	b = appendDouble(b, 4, v.Y)
	b = appendDouble(b, 5, v.Angle)
	b = appendDouble(b, 6, v.TurretAngle)
	b = appendVarint(b, 7, uint64(v.Weapon))
	b = appendVarint(b, 8, protowire.EncodeBool(v.Destroyed))
	return b
}

func (v *Vehicle) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, _ []byte, scalar uint64) error {
		switch num {
		case 1:
			v.Entity = scalar
		case 2:
			v.Type = uint32(scalar)
		case 3:
			v.X = math.Float64frombits(scalar)
		case 4:
			v.Y = math.Float64frombits(scalar)
		case 5:
			v.Angle = math.Float64frombits(scalar)
		case 6:
			v.TurretAngle = math.Float64frombits(scalar)
		case 7:
			v.Weapon = uint32(scalar)
		case 8:
			v.Destroyed = protowire.DecodeBool(scalar)
		}
		return nil
	})
}

func (p Projectile) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, p.Entity)
	b = appendVarint(b, 2, uint64(p.Weapon))
	b = appendDouble(b, 3, p.X)
	b = appendDouble(b, 4, p.Y)
	return b
}

func (p *Projectile) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, _ protowire.Type, _ []byte, scalar uint64) error {
		switch num {
		case 1:
			p.Entity = scalar
		case 2:
			p.Weapon = uint32(scalar)
		case 3:
			p.X = math.Float64frombits(scalar)
		case 4:
			p.Y = math.Float64frombits(scalar)
		}
		return nil
	})
}

func (e Explosion) marshal() []byte {
	var b []byte
	b = appendDouble(b, 1, e.X)
	b = appendDouble(b, 2, e.Y)
	b = appendDouble(b, 3, e.Scale)
	b = appendDouble(b, 4, e.Start)
	b = appendVarint(b, 5, protowire.EncodeBool(e.Bfg))
	return b
}

func (e *Explosion) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, _ protowire.Type, _ []byte, scalar uint64) error {
		switch num {
		case 1:
			e.X = math.Float64frombits(scalar)
		case 2:
			e.Y = math.Float64frombits(scalar)
		case 3:
			e.Scale = math.Float64frombits(scalar)
		case 4:
			e.Start = math.Float64frombits(scalar)
		case 5:
			e.Bfg = protowire.DecodeBool(scalar)
		}
		return nil
	})
}

func (s Segment) marshal() []byte {
	var b []byte
	b = appendDouble(b, 1, s.X1)
	b = appendDouble(b, 2, s.Y1)
	b = appendDouble(b, 3, s.X2)
	b = appendDouble(b, 4, s.Y2)
	return b
}

func (s *Segment) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, _ protowire.Type, _ []byte, scalar uint64) error {
		switch num {
		case 1:
			s.X1 = math.Float64frombits(scalar)
		case 2:
			s.Y1 = math.Float64frombits(scalar)
		case 3:
			s.X2 = math.Float64frombits(scalar)
		case 4:
			s.Y2 = math.Float64frombits(scalar)
		}
		return nil
	})
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 && !math.Signbit(v) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

// walk visits every field of a message. Scalars arrive in scalar, length
// delimited fields in value; other wire types are skipped.
func walk(b []byte, visit func(num protowire.Number, typ protowire.Type, value []byte, scalar uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			value  []byte
			scalar uint64
		)
		switch typ {
		case protowire.VarintType:
			scalar, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			scalar, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			value, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.Fixed64Type && typ != protowire.BytesType {
			continue
		}
		if err := visit(num, typ, value, scalar); err != nil {
			return err
		}
	}
	return nil
}

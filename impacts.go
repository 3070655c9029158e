package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"
)

const (
	collisionTypeBall cp.CollisionType = iota + 1
	collisionTypeFloor
)

const (
	ballRadius = 10.0
	maxBalls   = 16
	gravity    = 900.0
	// impacts slower than this make no sound
	minImpactSpeed = 40.0
	// impact speed mapped to full volume
	loudImpactSpeed = 700.0
)

// impacts is a small chipmunk scene: balls dropped onto a floor report how
// hard they hit so the game can play a footstep variant at that loudness.
type impacts struct {
	space *cp.Space
	balls []*cp.Shape
	hits  []float64
}

func newImpacts(width, height float64) *impacts {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{X: 0, Y: gravity})
	im := &impacts{space: space}

	floorY := height - 20
	segments := []struct {
		a, b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: floorY}, b: cp.Vector{X: width, Y: floorY}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: floorY}},
		{a: cp.Vector{X: width, Y: 0}, b: cp.Vector{X: width, Y: floorY}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(space.StaticBody, seg.a, seg.b, 2)
		shape.SetFriction(0.8)
		shape.SetElasticity(0.6)
		shape.SetCollisionType(collisionTypeFloor)
		space.AddShape(shape)
	}

	handler := space.NewCollisionHandler(collisionTypeBall, collisionTypeFloor)
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		a, _ := arb.Bodies()
		if speed := a.Velocity().Length(); speed >= minImpactSpeed {
			im.hits = append(im.hits, speed)
		}
		return true
	}
	return im
}

// drop adds a ball at x near the top, evicting the oldest past maxBalls.
func (im *impacts) drop(x float64) {
	if len(im.balls) >= maxBalls {
		old := im.balls[0]
		im.space.RemoveShape(old)
		im.space.RemoveBody(old.Body())
		im.balls = im.balls[1:]
	}

	mass := 1.0
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, ballRadius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: x, Y: 40})
	shape := cp.NewCircle(body, ballRadius, cp.Vector{})
	shape.SetFriction(0.6)
	shape.SetElasticity(0.7)
	shape.SetCollisionType(collisionTypeBall)

	im.space.AddBody(body)
	im.space.AddShape(shape)
	im.balls = append(im.balls, shape)
}

// step advances the scene and returns the impact speeds seen during it.
func (im *impacts) step(dt float64) []float64 {
	im.hits = im.hits[:0]
	im.space.Step(dt)
	return im.hits
}

// loudness maps an impact speed to a volume in (0,1].
func loudness(speed float64) float64 {
	v := speed / loudImpactSpeed
	if v > 1 {
		return 1
	}
	return v
}

func (im *impacts) draw(screen *ebiten.Image) {
	for _, ball := range im.balls {
		p := ball.Body().Position()
		vector.FillCircle(screen, float32(p.X), float32(p.Y), ballRadius, colornames.Goldenrod, true)
	}
}

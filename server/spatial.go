package main

import (
	"math"
	"sort"

	"github.com/solarlune/resolv"
)

const (
	spatialScale  = 4.0  // resolv units per world unit
	spatialCell   = 16   // resolv units per cell (4 world units)
	spatialMargin = 2.0  // world units of slack around every probe
	tagPlatform   = "platform"
	tagProbe      = "probe"
)

// PlatformIndex is an XZ broad-phase over platforms. Results are always
// returned in platform insertion order so resolution stays deterministic.
type PlatformIndex struct {
	space   *resolv.Space
	objects []*resolv.Object // parallel to platforms
	probe   *resolv.Object
	originX float64
	originZ float64
	buf     []int
}

// NewPlatformIndex builds a spatial hash covering every platform's full sweep
func NewPlatformIndex(platforms []*Platform) *PlatformIndex {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, p := range platforms {
		x0, x1 := sweepX(p)
		minX = math.Min(minX, x0)
		maxX = math.Max(maxX, x1)
		minZ = math.Min(minZ, p.Center[2]-p.Half[2])
		maxZ = math.Max(maxZ, p.Center[2]+p.Half[2])
	}
	idx := &PlatformIndex{
		originX: minX - spatialMargin,
		originZ: minZ - spatialMargin,
	}
	w := int(math.Ceil((maxX-minX+2*spatialMargin)*spatialScale)) + spatialCell
	h := int(math.Ceil((maxZ-minZ+2*spatialMargin)*spatialScale)) + spatialCell
	idx.space = resolv.NewSpace(w, h, spatialCell, spatialCell)

	idx.objects = make([]*resolv.Object, len(platforms))
	for i, p := range platforms {
		x, z, ow, od := idx.footprint(p.Center, p.Half, 0)
		obj := resolv.NewObject(x, z, ow, od, tagPlatform)
		obj.Data = i
		idx.space.Add(obj)
		idx.objects[i] = obj
	}
	idx.probe = resolv.NewObject(0, 0, 1, 1, tagProbe)
	idx.space.Add(idx.probe)
	return idx
}

// sweepX returns the x range a platform can ever occupy
func sweepX(p *Platform) (float64, float64) {
	if p.Motion == nil {
		return p.Center[0] - p.Half[0], p.Center[0] + p.Half[0]
	}
	a := math.Abs(p.Motion.Amplitude)
	return p.Motion.AnchorX - a - p.Half[0], p.Motion.AnchorX + a + p.Half[0]
}

// footprint maps a world-space XZ rectangle into resolv space
func (idx *PlatformIndex) footprint(center, half Vec3, pad float64) (x, z, w, d float64) {
	x = (center[0] - half[0] - pad - idx.originX) * spatialScale
	z = (center[2] - half[2] - pad - idx.originZ) * spatialScale
	w = (half[0] + pad) * 2 * spatialScale
	d = (half[2] + pad) * 2 * spatialScale
	return
}

// Sync moves the hash entries of moving platforms to their current x
func (idx *PlatformIndex) Sync(platforms []*Platform) {
	for i, p := range platforms {
		if p.Motion == nil || i >= len(idx.objects) {
			continue
		}
		obj := idx.objects[i]
		obj.X, obj.Y, obj.W, obj.H = idx.footprint(p.Center, p.Half, 0)
		obj.Update()
	}
}

// Query returns indices of platforms whose cells touch the padded footprint
// around pos, sorted ascending. The returned slice is reused between calls.
func (idx *PlatformIndex) Query(pos Vec3, half float64) []int {
	idx.buf = idx.buf[:0]
	x, z, w, d := idx.footprint(pos, Vec3{half, 0, half}, spatialMargin)
	idx.probe.X, idx.probe.Y, idx.probe.W, idx.probe.H = x, z, w, d
	idx.probe.Update()
	check := idx.probe.Check(0, 0, tagPlatform)
	if check == nil {
		return idx.buf
	}
	for _, obj := range check.Objects {
		if i, ok := obj.Data.(int); ok {
			idx.buf = append(idx.buf, i)
		}
	}
	sort.Ints(idx.buf)
	n := 0
	for i, v := range idx.buf {
		if i == 0 || v != idx.buf[n-1] {
			idx.buf[n] = v
			n++
		}
	}
	idx.buf = idx.buf[:n]
	return idx.buf
}

// platformCandidates returns the platforms worth testing around the player,
// in insertion order. Without an index every platform is a candidate.
func platformCandidates(w *World) []*Platform {
	idx := w.Index()
	if idx == nil {
		return w.Platforms
	}
	hits := idx.Query(w.Player.Pos, PlayerHalfWidth+math.Hypot(w.Player.Vel[0], w.Player.Vel[2])*0.1)
	out := make([]*Platform, 0, len(hits))
	for _, i := range hits {
		out = append(out, w.Platforms[i])
	}
	return out
}

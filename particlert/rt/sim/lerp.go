package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

func lerp(start, end, t float32) float32 {
	return start + t*(end-start)
}

// lerp3 interpolates start->mid over t in [0,0.5) and mid->end over [0.5,1].
// At t == 0.5 the result is exactly mid.
func lerp3(start, mid, end, t float32) float32 {
	if t < 0.5 {
		return lerp(start, mid, t/0.5)
	}
	return lerp(mid, end, (t-0.5)/0.5)
}

func lerpVec3(start, end mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{
		lerp(start[0], end[0], t),
		lerp(start[1], end[1], t),
		lerp(start[2], end[2], t),
	}
}

func lerp3Vec4(start, mid, end mgl32.Vec4, t float32) mgl32.Vec4 {
	return mgl32.Vec4{
		lerp3(start[0], mid[0], end[0], t),
		lerp3(start[1], mid[1], end[1], t),
		lerp3(start[2], mid[2], end[2], t),
		lerp3(start[3], mid[3], end[3], t),
	}
}

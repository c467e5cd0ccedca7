// gamification/leveling.go - Leveling curve
package gamification

import "math"

const (
	levelBase     = 100.0
	levelExponent = 1.5
)

// XPForLevel returns the cumulative XP required to reach level. The curve
// is superlinear (base * (level-1)^1.5) so early levels come quickly and
// later ones slow down. XPForLevel(1) == 0.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(levelBase * math.Pow(float64(level-1), levelExponent)))
}

// LevelForXP returns the largest level whose cumulative requirement is at
// or below xp. Exact inverse of XPForLevel at level boundaries.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	level := 1
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// XPForNextLevel returns the cumulative XP required for the level after
// the given one.
func XPForNextLevel(level int) int {
	return XPForLevel(level + 1)
}

// XPProgress returns the integer percentage (0-100) of progress within
// the current level for the given total XP.
func XPProgress(xp int) int {
	if xp < 0 {
		return 0
	}
	level := LevelForXP(xp)
	floor := XPForLevel(level)
	ceil := XPForNextLevel(level)
	if ceil <= floor {
		return 0
	}
	pct := (xp - floor) * 100 / (ceil - floor)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

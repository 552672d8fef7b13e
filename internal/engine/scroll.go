package engine

// scrollDelta maps a scroll-mode keystroke to wheel deltas in lines.
// Positive y scrolls content up, positive x scrolls content left,
// matching the platform wheel convention.
func scrollDelta(key string, step, half, full int) (dx, dy int, ok bool) {
	switch key {
	case "j", "down":
		return 0, -step, true
	case "k", "up":
		return 0, step, true
	case "h", "left":
		return step, 0, true
	case "l", "right":
		return -step, 0, true
	case "d":
		return 0, -half, true
	case "u":
		return 0, half, true
	case "g":
		return 0, full, true
	case "G":
		return 0, -full, true
	default:
		return 0, 0, false
	}
}

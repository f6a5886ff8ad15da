package world

// FieldOfView returns the in-bounds tiles visible from origin within radius,
// in Range order. A tile is visible when no tile strictly between it and the
// origin blocks sight. Viewers on hills or mountains see over blockers.
func FieldOfView(m *Map, origin HexCoord, radius int) []HexCoord {
	from := m.Get(origin)
	if from == nil {
		return nil
	}
	elevated := from.Elevated()

	var out []HexCoord
	for _, target := range m.CoordinatesInRange(origin, radius) {
		if elevated || lineOfSight(m, origin, target) {
			out = append(out, target)
		}
	}
	return out
}

// lineOfSight reports whether nothing between a and b blocks sight.
func lineOfSight(m *Map, a, b HexCoord) bool {
	line := Line(a, b)
	for i := 1; i < len(line)-1; i++ {
		t := m.Get(line[i])
		if t != nil && t.BlocksSight() {
			return false
		}
	}
	return true
}

package sim

// findNeighbours senses every vehicle against the current, sorted lane
// contents. It runs to completion before any vehicle decides, so every
// decision in a tick sees the same snapshot of positions.
func (h *Highway) findNeighbours() error {
	s := h.sensor()

	// Step 1: same-lane neighbours from the sorted predecessor/successor.
	for li, l := range h.lanes {
		vs := l.vehicles
		for i, v := range vs {
			if err := h.checkDivergence(v, li, i); err != nil {
				return err
			}
			n := &v.neighbours
			if i+1 < len(vs) {
				n.Front = s.target(v, vs[i+1])
			} else {
				n.Front = s.farFront()
			}
			if i > 0 {
				n.Back = s.target(v, vs[i-1])
			} else {
				n.Back = s.farBack()
			}
		}
	}

	// Step 2: cross-lane neighbours from a simultaneous sweep.
	h.sweepAdjacentLanes(s)

	if h.preferred != nil && h.preferred.neighbours.Front != nil {
		h.preferredFrontGap = h.preferred.neighbours.Front.Dist
	}
	return nil
}

// sweepAdjacentLanes walks all lanes at once in increasing position order.
// One cursor per lane; each iteration takes the lane whose cursor vehicle
// is rearmost and senses it against the adjacent lanes' cursor vehicle
// (front) and that vehicle's predecessor (back).
//
// The sweep stops as soon as any lane longer than SweepTail has only
// SweepTail vehicles left. Shorter lanes never stop it, so a lane holding
// a single vehicle does not switch off cross-lane sensing for the road.
// Vehicles it does not reach keep the cross-lane targets from their last
// visit. With SweepTail = 0 every vehicle is visited.
func (h *Highway) sweepAdjacentLanes(s sensor) {
	if cap(h.cursors) < len(h.lanes) {
		h.cursors = make([]int, len(h.lanes))
	}
	cursors := h.cursors[:len(h.lanes)]
	clear(cursors)

	for {
		cur := -1
		for li, l := range h.lanes {
			c := cursors[li]
			if c >= l.Len() {
				continue
			}
			if l.Len() > h.cfg.SweepTail && l.Len()-c <= h.cfg.SweepTail {
				return
			}
			if cur < 0 || l.vehicles[c].x < h.lanes[cur].vehicles[cursors[cur]].x {
				cur = li
			}
		}
		if cur < 0 {
			return
		}

		ego := h.lanes[cur].vehicles[cursors[cur]]
		for _, dir := range [2]int{+1, -1} {
			adj := cur + dir
			if adj < 0 || adj >= len(h.lanes) {
				ego.neighbours.setSide(dir, nil, nil)
				continue
			}
			al := h.lanes[adj]
			k := cursors[adj]
			front, back := s.farFront(), s.farBack()
			if k < al.Len() {
				front = s.target(ego, al.vehicles[k])
			}
			if k > 0 {
				back = s.target(ego, al.vehicles[k-1])
			}
			ego.neighbours.setSide(dir, front, back)
		}
		cursors[cur]++
	}
}

func (h *Highway) sensor() sensor {
	return sensor{maxView: h.cfg.MaxViewDistance, sentinel: h.cfg.SentinelDistance}
}

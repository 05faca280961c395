package tessellate

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// node is a vertex in a circular doubly linked polygon.
type node struct {
	i          int
	x, y       float64
	prev, next *node
	steiner    bool
}

// earcut triangulates the polygon formed by pts, where holes holds the start
// index of every hole ring in pts; everything before holes[0] is the outer
// ring. It returns vertex indices into pts, three per triangle.
func earcut(pts []orb.Point, holes []int) []int {
	outerLen := len(pts)
	if len(holes) > 0 {
		outerLen = holes[0]
	}
	var tris []int
	outer := linkedList(pts, 0, outerLen, true)
	if outer == nil || outer.next == outer.prev {
		return tris
	}
	if len(holes) > 0 {
		outer = eliminateHoles(pts, holes, outer)
	}
	earcutLinked(outer, &tris, 0)
	return tris
}

// linkedList builds a ring from pts[start:end] in the requested winding.
func linkedList(pts []orb.Point, start, end int, clockwise bool) *node {
	var last *node
	if clockwise == (signedArea(pts, start, end) > 0) {
		for i := start; i < end; i++ {
			last = insertNode(i, pts[i], last)
		}
	} else {
		for i := end - 1; i >= start; i-- {
			last = insertNode(i, pts[i], last)
		}
	}
	if last != nil && equals(last, last.next) {
		removeNode(last)
		last = last.next
	}
	return last
}

func earcutLinked(ear *node, tris *[]int, pass int) {
	if ear == nil {
		return
	}
	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next
		if isEar(ear) {
			*tris = append(*tris, prev.i, ear.i, next.i)
			removeNode(ear)
			ear = next.next
			stop = next.next
			continue
		}
		ear = next
		if ear == stop {
			switch pass {
			case 0:
				earcutLinked(filterPoints(ear, nil), tris, 1)
			case 1:
				ear = cureLocalIntersections(filterPoints(ear, nil), tris)
				earcutLinked(ear, tris, 2)
			case 2:
				splitEarcut(ear, tris)
			}
			break
		}
	}
}

// isEar reports whether ear is convex with no other vertex inside its triangle.
func isEar(ear *node) bool {
	a, b, c := ear.prev, ear, ear.next
	if area(a, b, c) >= 0 {
		return false
	}
	for p := c.next; p != a; p = p.next {
		if pointInTriangle(a.x, a.y, b.x, b.y, c.x, c.y, p.x, p.y) && area(p.prev, p, p.next) >= 0 {
			return false
		}
	}
	return true
}

// cureLocalIntersections cuts off small self-intersections as triangles.
func cureLocalIntersections(start *node, tris *[]int) *node {
	p := start
	for {
		a, b := p.prev, p.next.next
		if !equals(a, b) && intersects(a, p, p.next, b) && locallyInside(a, b) && locallyInside(b, a) {
			*tris = append(*tris, a.i, p.i, b.i)
			removeNode(p)
			removeNode(p.next)
			p = b
			start = b
		}
		p = p.next
		if p == start {
			break
		}
	}
	return filterPoints(p, nil)
}

// splitEarcut splits the polygon along a valid diagonal and triangulates both halves.
func splitEarcut(start *node, tris *[]int) {
	a := start
	for {
		for b := a.next.next; b != a.prev; b = b.next {
			if a.i != b.i && isValidDiagonal(a, b) {
				c := splitPolygon(a, b)
				a = filterPoints(a, a.next)
				c = filterPoints(c, c.next)
				earcutLinked(a, tris, 0)
				earcutLinked(c, tris, 0)
				return
			}
		}
		a = a.next
		if a == start {
			return
		}
	}
}

// eliminateHoles bridges every hole into the outer ring, left to right.
func eliminateHoles(pts []orb.Point, holes []int, outer *node) *node {
	queue := make([]*node, 0, len(holes))
	for i, start := range holes {
		end := len(pts)
		if i < len(holes)-1 {
			end = holes[i+1]
		}
		list := linkedList(pts, start, end, false)
		if list == nil {
			continue
		}
		if list == list.next {
			list.steiner = true
		}
		queue = append(queue, leftmost(list))
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].x < queue[j].x })
	for _, h := range queue {
		outer = eliminateHole(h, outer)
	}
	return outer
}

func eliminateHole(hole, outer *node) *node {
	bridge := findHoleBridge(hole, outer)
	if bridge == nil {
		return outer
	}
	reverse := splitPolygon(bridge, hole)
	filterPoints(reverse, reverse.next)
	return filterPoints(bridge, bridge.next)
}

// findHoleBridge finds an outer vertex visible from the hole's leftmost vertex.
func findHoleBridge(hole, outer *node) *node {
	hx, hy := hole.x, hole.y
	qx := math.Inf(-1)
	var m *node

	p := outer
	for {
		if hy <= p.y && hy >= p.next.y && p.next.y != p.y {
			x := p.x + (hy-p.y)*(p.next.x-p.x)/(p.next.y-p.y)
			if x <= hx && x > qx {
				qx = x
				m = p
				if p.x >= p.next.x {
					m = p.next
				}
				if x == hx {
					return m
				}
			}
		}
		p = p.next
		if p == outer {
			break
		}
	}
	if m == nil {
		return nil
	}

	stop := m
	mx, my := m.x, m.y
	tanMin := math.Inf(1)
	p = m
	for {
		ax, cx := qx, hx
		if hy < my {
			ax, cx = hx, qx
		}
		if hx >= p.x && p.x >= mx && hx != p.x && pointInTriangle(ax, hy, mx, my, cx, hy, p.x, p.y) {
			tan := math.Abs(hy-p.y) / (hx - p.x)
			if locallyInside(p, hole) &&
				(tan < tanMin || (tan == tanMin && (p.x > m.x || (p.x == m.x && sectorContainsSector(m, p))))) {
				m = p
				tanMin = tan
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

func sectorContainsSector(m, p *node) bool {
	return area(m.prev, m, p.prev) < 0 && area(p.next, m, m.next) < 0
}

func leftmost(start *node) *node {
	p, left := start, start
	for {
		if p.x < left.x || (p.x == left.x && p.y < left.y) {
			left = p
		}
		p = p.next
		if p == start {
			return left
		}
	}
}

// filterPoints drops duplicate and collinear vertices between start and end.
func filterPoints(start, end *node) *node {
	if start == nil {
		return nil
	}
	if end == nil {
		end = start
	}
	p := start
	for {
		again := false
		if !p.steiner && (equals(p, p.next) || area(p.prev, p, p.next) == 0) {
			removeNode(p)
			p = p.prev
			end = p
			if p == p.next {
				break
			}
			again = true
		} else {
			p = p.next
		}
		if !again && p == end {
			break
		}
	}
	return end
}

func isValidDiagonal(a, b *node) bool {
	if a.next.i == b.i || a.prev.i == b.i || intersectsPolygon(a, b) {
		return false
	}
	if locallyInside(a, b) && locallyInside(b, a) && middleInside(a, b) &&
		(area(a.prev, a, b.prev) != 0 || area(a, b.prev, b) != 0) {
		return true
	}
	return equals(a, b) && area(a.prev, a, a.next) > 0 && area(b.prev, b, b.next) > 0
}

func area(p, q, r *node) float64 {
	return (q.y-p.y)*(r.x-q.x) - (q.x-p.x)*(r.y-q.y)
}

func equals(p1, p2 *node) bool {
	return p1.x == p2.x && p1.y == p2.y
}

func pointInTriangle(ax, ay, bx, by, cx, cy, px, py float64) bool {
	return (cx-px)*(ay-py) >= (ax-px)*(cy-py) &&
		(ax-px)*(by-py) >= (bx-px)*(ay-py) &&
		(bx-px)*(cy-py) >= (cx-px)*(by-py)
}

func intersects(p1, q1, p2, q2 *node) bool {
	o1 := sign(area(p1, q1, p2))
	o2 := sign(area(p1, q1, q2))
	o3 := sign(area(p2, q2, p1))
	o4 := sign(area(p2, q2, q1))
	switch {
	case o1 != o2 && o3 != o4:
		return true
	case o1 == 0 && onSegment(p1, p2, q1):
		return true
	case o2 == 0 && onSegment(p1, q2, q1):
		return true
	case o3 == 0 && onSegment(p2, p1, q2):
		return true
	case o4 == 0 && onSegment(p2, q1, q2):
		return true
	}
	return false
}

// onSegment reports whether q lies within the bounds of segment pr.
func onSegment(p, q, r *node) bool {
	return q.x <= math.Max(p.x, r.x) && q.x >= math.Min(p.x, r.x) &&
		q.y <= math.Max(p.y, r.y) && q.y >= math.Min(p.y, r.y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func intersectsPolygon(a, b *node) bool {
	p := a
	for {
		if p.i != a.i && p.next.i != a.i && p.i != b.i && p.next.i != b.i && intersects(p, p.next, a, b) {
			return true
		}
		p = p.next
		if p == a {
			return false
		}
	}
}

func locallyInside(a, b *node) bool {
	if area(a.prev, a, a.next) < 0 {
		return area(a, b, a.next) >= 0 && area(a, a.prev, b) >= 0
	}
	return area(a, b, a.prev) < 0 || area(a, a.next, b) < 0
}

// middleInside reports whether the midpoint of ab lies inside the polygon.
func middleInside(a, b *node) bool {
	p := a
	inside := false
	px, py := (a.x+b.x)/2, (a.y+b.y)/2
	for {
		if (p.y > py) != (p.next.y > py) && p.next.y != p.y &&
			px < (p.next.x-p.x)*(py-p.y)/(p.next.y-p.y)+p.x {
			inside = !inside
		}
		p = p.next
		if p == a {
			return inside
		}
	}
}

// splitPolygon links a and b with a diagonal, producing two rings; it returns
// the copy of b on the second ring.
func splitPolygon(a, b *node) *node {
	a2 := &node{i: a.i, x: a.x, y: a.y}
	b2 := &node{i: b.i, x: b.x, y: b.y}
	an, bp := a.next, b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp

	return b2
}

func insertNode(i int, pt orb.Point, last *node) *node {
	p := &node{i: i, x: pt[0], y: pt[1]}
	if last == nil {
		p.prev = p
		p.next = p
	} else {
		p.next = last.next
		p.prev = last
		last.next.prev = p
		last.next = p
	}
	return p
}

func removeNode(p *node) {
	p.next.prev = p.prev
	p.prev.next = p.next
}

func signedArea(pts []orb.Point, start, end int) float64 {
	sum := 0.0
	j := end - 1
	for i := start; i < end; i++ {
		sum += (pts[j][0] - pts[i][0]) * (pts[i][1] + pts[j][1])
		j = i
	}
	return sum
}

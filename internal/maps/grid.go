package maps

import (
	"cmp"
	"math"
	"slices"

	"github.com/pixil98/go-worldserver/internal/object"
)

// cellSize is the edge of a grid cell in yards.
const cellSize = 66.0

type cellKey struct {
	cx int32
	cy int32
}

func toCell(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

func cellOf(p object.Position) cellKey {
	return cellKey{cx: toCell(p.X), cy: toCell(p.Y)}
}

// grid indexes the entities of a map by cell so range queries only look at
// nearby cells. It is owned by the map's update goroutine and holds no lock.
type grid struct {
	cells map[cellKey]map[object.GUID]object.Entity
	where map[object.GUID]cellKey
}

func newGrid() *grid {
	return &grid{
		cells: make(map[cellKey]map[object.GUID]object.Entity),
		where: make(map[object.GUID]cellKey),
	}
}

func (g *grid) add(e object.Entity) {
	guid := e.Object().GUID()
	if _, ok := g.where[guid]; ok {
		g.remove(e)
	}
	k := cellOf(e.Object().Position())
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[object.GUID]object.Entity)
		g.cells[k] = cell
	}
	cell[guid] = e
	g.where[guid] = k
}

func (g *grid) remove(e object.Entity) {
	guid := e.Object().GUID()
	k, ok := g.where[guid]
	if !ok {
		return
	}
	delete(g.where, guid)
	if cell := g.cells[k]; cell != nil {
		delete(cell, guid)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// relocate moves e to the cell of its current position.
func (g *grid) relocate(e object.Entity) {
	k, ok := g.where[e.Object().GUID()]
	if !ok || k == cellOf(e.Object().Position()) {
		return
	}
	g.add(e)
}

func (g *grid) len() int { return len(g.where) }

// nearby returns the entities in every cell touched by the square of
// radius around p, ordered by GUID. Callers filter by exact distance.
func (g *grid) nearby(p object.Position, radius float64) []object.Entity {
	minX, maxX := toCell(p.X-radius), toCell(p.X+radius)
	minY, maxY := toCell(p.Y-radius), toCell(p.Y+radius)

	var out []object.Entity
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			for _, e := range g.cells[cellKey{cx: cx, cy: cy}] {
				out = append(out, e)
			}
		}
	}
	slices.SortFunc(out, func(a, b object.Entity) int {
		return compareGUID(a.Object().GUID(), b.Object().GUID())
	})
	return out
}

func compareGUID(a, b object.GUID) int {
	if c := cmp.Compare(a.High, b.High); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Entry, b.Entry); c != 0 {
		return c
	}
	return cmp.Compare(a.Counter, b.Counter)
}

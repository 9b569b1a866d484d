// Package tilemap provides the static tile map that movement, projectiles and
// hit-scan weapons collide against.
package tilemap

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"driftpursuit/arena/internal/geom"
)

// DefaultTileSize is the edge length of a tile in world units.
const DefaultTileSize = 64.0

// Grid is an immutable row-major grid of solid or free tiles anchored at the
// world origin. Everything outside the grid is solid.
type Grid struct {
	tileSize float64
	cols     int
	rows     int
	solid    []bool
}

// NewGrid copies the provided solidity matrix, indexed [row][col].
func NewGrid(cells [][]bool, tileSize float64) (*Grid, error) {
	//1.- Reject geometry that cannot describe a level.
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, errors.New("tilemap: grid needs at least one tile")
	}
	if tileSize <= 0 || math.IsNaN(tileSize) || math.IsInf(tileSize, 0) {
		return nil, fmt.Errorf("tilemap: invalid tile size %v", tileSize)
	}
	cols := len(cells[0])
	solid := make([]bool, 0, cols*len(cells))
	for row, line := range cells {
		if len(line) != cols {
			return nil, fmt.Errorf("tilemap: row %d has %d tiles, expected %d", row, len(line), cols)
		}
		solid = append(solid, line...)
	}
	return &Grid{tileSize: tileSize, cols: cols, rows: len(cells), solid: solid}, nil
}

// FromRows parses a text layout where '#' marks a wall and any other rune is free.
func FromRows(rows []string, tileSize float64) (*Grid, error) {
	cells := make([][]bool, 0, len(rows))
	for _, row := range rows {
		line := make([]bool, 0, len(row))
		for _, r := range row {
			line = append(line, r == '#')
		}
		cells = append(cells, line)
	}
	return NewGrid(cells, tileSize)
}

// Parse reads a newline separated layout in the FromRows format.
func Parse(layout string, tileSize float64) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return FromRows(rows, tileSize)
}

// Arena builds a walled rectangle of cols by rows tiles.
func Arena(cols, rows int, tileSize float64) (*Grid, error) {
	if cols < 3 || rows < 3 {
		return nil, fmt.Errorf("tilemap: arena %dx%d leaves no free tiles", cols, rows)
	}
	cells := make([][]bool, rows)
	for row := range cells {
		cells[row] = make([]bool, cols)
		for col := range cells[row] {
			cells[row][col] = row == 0 || col == 0 || row == rows-1 || col == cols-1
		}
	}
	return NewGrid(cells, tileSize)
}

// TileSize returns the tile edge length.
func (g *Grid) TileSize() float64 {
	g.mustHaveTiles()
	return g.tileSize
}

// Dimensions returns the grid size in tiles.
func (g *Grid) Dimensions() (cols, rows int) {
	g.mustHaveTiles()
	return g.cols, g.rows
}

// Size returns the world extent of the grid.
func (g *Grid) Size() geom.Vec2 {
	g.mustHaveTiles()
	return geom.V(float64(g.cols)*g.tileSize, float64(g.rows)*g.tileSize)
}

// TileCenter returns the world position of a tile's centre.
func (g *Grid) TileCenter(col, row int) geom.Vec2 {
	g.mustHaveTiles()
	return geom.V((float64(col)+0.5)*g.tileSize, (float64(row)+0.5)*g.tileSize)
}

// Solid reports whether the tile at col,row blocks movement.
func (g *Grid) Solid(col, row int) bool {
	g.mustHaveTiles()
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return true
	}
	return g.solid[row*g.cols+col]
}

// Collision reports whether the point lies inside a solid tile.
func (g *Grid) Collision(point geom.Vec2) bool {
	g.mustHaveTiles()
	col, row := g.tileOf(point)
	return g.Solid(col, row)
}

// CollisionBetween walks the tiles crossed by the segment from -> to and
// returns the point where the segment first enters a solid tile. A segment
// starting inside a solid tile collides at its origin.
func (g *Grid) CollisionBetween(from, to geom.Vec2) (geom.Vec2, bool) {
	g.mustHaveTiles()
	col, row := g.tileOf(from)
	if g.Solid(col, row) {
		return from, true
	}

	//1.- Set up the per axis boundary crossing parameters along the segment.
	delta := to.Sub(from)
	endCol, endRow := g.tileOf(to)
	stepX, nextX, spanX := g.axis(from.X, delta.X, col)
	stepY, nextY, spanY := g.axis(from.Y, delta.Y, row)

	//2.- Visit tiles in crossing order until the end tile; the bound absorbs rounding.
	remaining := abs(endCol-col) + abs(endRow-row)
	for ; remaining > 0; remaining-- {
		var t float64
		if nextX < nextY {
			col += stepX
			t = nextX
			nextX += spanX
		} else {
			row += stepY
			t = nextY
			nextY += spanY
		}
		if t > 1 {
			break
		}
		if g.Solid(col, row) {
			return from.Add(delta.Scale(t)), true
		}
	}
	return geom.Vec2{}, false
}

func (g *Grid) axis(origin, delta float64, tile int) (step int, next, span float64) {
	switch {
	case delta > 0:
		return 1, (float64(tile+1)*g.tileSize - origin) / delta, g.tileSize / delta
	case delta < 0:
		return -1, (float64(tile)*g.tileSize - origin) / delta, -g.tileSize / delta
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

func (g *Grid) tileOf(point geom.Vec2) (col, row int) {
	return int(math.Floor(point.X / g.tileSize)), int(math.Floor(point.Y / g.tileSize))
}

func (g *Grid) mustHaveTiles() {
	if g == nil || len(g.solid) == 0 {
		panic("tilemap: collision query against a map without tiles")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

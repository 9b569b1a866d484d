package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftpursuit/arena/internal/geom"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	grid, err := FromRows([]string{
		"#####",
		"#...#",
		"#.#.#",
		"#...#",
		"#####",
	}, 10)
	require.NoError(t, err)
	return grid
}

func TestCollisionPoint(t *testing.T) {
	grid := testGrid(t)
	assert.False(t, grid.Collision(geom.V(15, 15)))
	assert.True(t, grid.Collision(geom.V(25, 25)))
	assert.True(t, grid.Collision(geom.V(5, 15)))
	//1.- Anything outside the grid counts as solid.
	assert.True(t, grid.Collision(geom.V(-1, 15)))
	assert.True(t, grid.Collision(geom.V(15, 1000)))
}

func TestCollisionBetweenReturnsEntryPoint(t *testing.T) {
	grid := testGrid(t)
	hit, ok := grid.CollisionBetween(geom.V(15, 25), geom.V(35, 25))
	require.True(t, ok)
	assert.InDelta(t, 20.0, hit.X, 1e-9)
	assert.InDelta(t, 25.0, hit.Y, 1e-9)
}

func TestCollisionBetweenNegativeDirection(t *testing.T) {
	grid := testGrid(t)
	hit, ok := grid.CollisionBetween(geom.V(35, 25), geom.V(15, 25))
	require.True(t, ok)
	assert.InDelta(t, 30.0, hit.X, 1e-9)
}

func TestCollisionBetweenClearSegment(t *testing.T) {
	grid := testGrid(t)
	_, ok := grid.CollisionBetween(geom.V(12, 12), geom.V(38, 12))
	assert.False(t, ok)
	_, ok = grid.CollisionBetween(geom.V(12, 12), geom.V(12, 12))
	assert.False(t, ok)
}

func TestCollisionBetweenDiagonal(t *testing.T) {
	grid := testGrid(t)
	hit, ok := grid.CollisionBetween(geom.V(15, 15), geom.V(28, 28))
	require.True(t, ok)
	assert.InDelta(t, 20.0, hit.X, 1e-9)
	assert.InDelta(t, 20.0, hit.Y, 1e-9)
}

func TestCollisionBetweenStartsInsideWall(t *testing.T) {
	grid := testGrid(t)
	hit, ok := grid.CollisionBetween(geom.V(25, 25), geom.V(15, 15))
	require.True(t, ok)
	assert.Equal(t, geom.V(25, 25), hit)
}

func TestCollisionBetweenLongTraceLeavesGrid(t *testing.T) {
	grid, err := Arena(4, 4, 10)
	require.NoError(t, err)
	hit, ok := grid.CollisionBetween(geom.V(15, 15), geom.V(100000, 15))
	require.True(t, ok)
	assert.InDelta(t, 30.0, hit.X, 1e-9)
}

func TestNewGridRejectsMalformedInput(t *testing.T) {
	_, err := NewGrid(nil, 10)
	assert.Error(t, err)
	_, err = NewGrid([][]bool{{true}, {true, false}}, 10)
	assert.Error(t, err)
	_, err = NewGrid([][]bool{{true}}, 0)
	assert.Error(t, err)
	_, err = Arena(2, 5, 10)
	assert.Error(t, err)
}

func TestNilGridPanics(t *testing.T) {
	var grid *Grid
	assert.Panics(t, func() { grid.Collision(geom.V(0, 0)) })
}

func TestParseSkipsBlankLines(t *testing.T) {
	grid, err := Parse("\n###\n#.#\r\n###\n", 64)
	require.NoError(t, err)
	cols, rows := grid.Dimensions()
	assert.Equal(t, 3, cols)
	assert.Equal(t, 3, rows)
	assert.Equal(t, geom.V(96, 96), grid.TileCenter(1, 1))
	assert.False(t, grid.Collision(grid.TileCenter(1, 1)))
}

package gamerules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillGrid builds a 4x4 grid of base symbols with overrides applied by index.
func fillGrid(base string, overrides map[int]string) []string {
	grid := make([]string, PokieGridCells)
	for i := range grid {
		grid[i] = base
	}
	for idx, s := range overrides {
		grid[idx] = s
	}
	return grid
}

// noMatchGrid has no full row, column or diagonal of one symbol.
func noMatchGrid() []string {
	return []string{
		"cherry", "lemon", "cherry", "lemon",
		"lemon", "cherry", "lemon", "cherry",
		"cherry", "lemon", "lemon", "cherry",
		"lemon", "cherry", "cherry", "lemon",
	}
}

func TestMatchingPokieLines_TopRowOnly(t *testing.T) {
	grid := noMatchGrid()
	grid[0], grid[1], grid[2], grid[3] = "bell", "bell", "bell", "bell"

	assert.Equal(t, 1, MatchingPokieLines(grid))
}

func TestMatchingPokieLines_NoMatch(t *testing.T) {
	assert.Equal(t, 0, MatchingPokieLines(noMatchGrid()))
}

func TestMatchingPokieLines_UniformGrid(t *testing.T) {
	grid := fillGrid("seven", nil)

	// 4 rows + 4 columns + 2 diagonals.
	assert.Equal(t, 10, MatchingPokieLines(grid))
}

func TestMatchingPokieLines_ColumnAndDiagonal(t *testing.T) {
	grid := noMatchGrid()
	// First column.
	grid[0], grid[4], grid[8], grid[12] = "diamond", "diamond", "diamond", "diamond"

	assert.Equal(t, 1, MatchingPokieLines(grid))
}

func TestPokiePayout_SingleTopRow(t *testing.T) {
	grid := noMatchGrid()
	grid[0], grid[1], grid[2], grid[3] = "bell", "bell", "bell", "bell"

	// "cherry" and "lemon" each hold 6 of the remaining 12 cells, "bell" only
	// 4 — the dominant symbol picks the multiplier, not the winning line.
	payout, lines, dominant := PokiePayout(grid, 100)
	require.Equal(t, 1, lines)
	assert.Equal(t, "cherry", dominant)
	assert.Equal(t, 100*PokieMultiplier("cherry")*1, payout)
}

func TestPokiePayout_DominantLineAgrees(t *testing.T) {
	// Bell everywhere except a scattering: dominant symbol IS the line symbol.
	grid := fillGrid("bell", map[int]string{5: "cherry", 10: "lemon", 15: "seven"})

	payout, lines, dominant := PokiePayout(grid, 10)
	assert.Equal(t, "bell", dominant)
	assert.Greater(t, lines, 0)
	assert.Equal(t, 10*PokieMultiplier("bell")*int64(lines), payout)
}

func TestPokiePayout_NoMatchPaysNothing(t *testing.T) {
	payout, lines, dominant := PokiePayout(noMatchGrid(), 500)
	assert.Zero(t, payout)
	assert.Zero(t, lines)
	assert.Empty(t, dominant)
}

func TestGeneratePokieGrid_ValidSymbols(t *testing.T) {
	known := make(map[string]bool, len(PokieSymbols))
	for _, s := range PokieSymbols {
		known[s.Name] = true
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		grid := GeneratePokieGrid(r)
		require.Len(t, grid, PokieGridCells)
		for _, cell := range grid {
			assert.True(t, known[cell], "unknown symbol %q", cell)
		}
	}
}

func TestPokieMultiplier_UnknownSymbol(t *testing.T) {
	assert.Zero(t, PokieMultiplier("watermelon"))
}

func TestDominantPokieSymbol_TieBreaksBySymbolOrder(t *testing.T) {
	// 8 cherries, 8 lemons: cherry listed first wins the tie.
	grid := make([]string, PokieGridCells)
	for i := range grid {
		if i%2 == 0 {
			grid[i] = "cherry"
		} else {
			grid[i] = "lemon"
		}
	}

	assert.Equal(t, "cherry", DominantPokieSymbol(grid))
}

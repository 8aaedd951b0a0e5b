package gamerules

import "math/rand"

// Pokie grid dimensions: 4x4, indexed row-major.
const (
	PokieGridSide  = 4
	PokieGridCells = PokieGridSide * PokieGridSide
)

// PokieSymbol is one reel symbol with its draw weight and payout multiplier.
type PokieSymbol struct {
	Name       string
	Weight     int
	Multiplier int64
}

// PokieSymbols is the weighted symbol table, rarest last.
var PokieSymbols = []PokieSymbol{
	{Name: "cherry", Weight: 40, Multiplier: 2},
	{Name: "lemon", Weight: 30, Multiplier: 3},
	{Name: "bell", Weight: 20, Multiplier: 5},
	{Name: "diamond", Weight: 8, Multiplier: 10},
	{Name: "seven", Weight: 2, Multiplier: 25},
}

var totalPokieWeight = func() int {
	total := 0
	for _, s := range PokieSymbols {
		total += s.Weight
	}
	return total
}()

// pokieLines are every payline on the grid: 4 rows, 4 columns, 2 diagonals.
var pokieLines = func() [][PokieGridSide]int {
	var lines [][PokieGridSide]int
	for r := 0; r < PokieGridSide; r++ {
		var line [PokieGridSide]int
		for c := 0; c < PokieGridSide; c++ {
			line[c] = r*PokieGridSide + c
		}
		lines = append(lines, line)
	}
	for c := 0; c < PokieGridSide; c++ {
		var line [PokieGridSide]int
		for r := 0; r < PokieGridSide; r++ {
			line[r] = r*PokieGridSide + c
		}
		lines = append(lines, line)
	}
	var main, anti [PokieGridSide]int
	for i := 0; i < PokieGridSide; i++ {
		main[i] = i*PokieGridSide + i
		anti[i] = i*PokieGridSide + (PokieGridSide - 1 - i)
	}
	return append(lines, main, anti)
}()

// GeneratePokieGrid draws 16 symbols uniformly by weight from the given source.
func GeneratePokieGrid(r *rand.Rand) []string {
	grid := make([]string, PokieGridCells)
	for i := range grid {
		grid[i] = drawPokieSymbol(r)
	}
	return grid
}

func drawPokieSymbol(r *rand.Rand) string {
	n := r.Intn(totalPokieWeight)
	for _, s := range PokieSymbols {
		if n < s.Weight {
			return s.Name
		}
		n -= s.Weight
	}
	return PokieSymbols[len(PokieSymbols)-1].Name
}

// MatchingPokieLines counts paylines whose cells all hold the same symbol.
func MatchingPokieLines(grid []string) int {
	if len(grid) != PokieGridCells {
		return 0
	}
	count := 0
	for _, line := range pokieLines {
		first := grid[line[0]]
		matched := first != ""
		for _, idx := range line[1:] {
			if grid[idx] != first {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return count
}

// DominantPokieSymbol returns the most frequent symbol on the grid. Ties break
// toward the symbol listed first in PokieSymbols.
func DominantPokieSymbol(grid []string) string {
	counts := make(map[string]int, len(PokieSymbols))
	for _, cell := range grid {
		counts[cell]++
	}
	best := ""
	bestCount := 0
	for _, s := range PokieSymbols {
		if counts[s.Name] > bestCount {
			best = s.Name
			bestCount = counts[s.Name]
		}
	}
	return best
}

// PokieMultiplier returns the payout multiplier for a symbol name, 0 if unknown.
func PokieMultiplier(symbol string) int64 {
	for _, s := range PokieSymbols {
		if s.Name == symbol {
			return s.Multiplier
		}
	}
	return 0
}

// PokiePayout computes the total payout for a spin. The multiplier is taken
// from the dominant symbol across the whole grid, not from each winning
// line's own symbol, so with multiple distinct matches the paid multiplier
// can diverge from a winning line. Known quirk, kept on purpose.
func PokiePayout(grid []string, bet int64) (payout int64, lines int, dominant string) {
	lines = MatchingPokieLines(grid)
	if lines == 0 {
		return 0, 0, ""
	}
	dominant = DominantPokieSymbol(grid)
	payout = bet * PokieMultiplier(dominant) * int64(lines)
	return payout, lines, dominant
}

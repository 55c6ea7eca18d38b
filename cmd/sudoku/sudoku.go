package sudoku

import (
	"fmt"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

// Sudoku is a 9x9 board: one variable per cell over [1,9], all
// different in every row, column and box.
type Sudoku struct {
	model *fd.Model
	cells [9][9]*fd.IntVar
}

func GetName(row, col int) string {
	return fmt.Sprintf("cell[%d][%d]", row, col)
}

// NewSudoku builds the board. givens lists the 81 cells row by row,
// with '.' or '0' for an empty cell; an empty string is a blank board.
func NewSudoku(givens string, level string) (*Sudoku, error) {
	givens = strings.Join(strings.Fields(givens), "")
	if givens != "" && len(givens) != 81 {
		return nil, fd.Malformed("a board has 81 cells, got %d", len(givens))
	}
	s := &Sudoku{model: fd.NewModel("sudoku")}
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			lb, ub := 1, 9
			if givens != "" {
				switch c := givens[row*9+col]; {
				case c == '.' || c == '0':
				case c >= '1' && c <= '9':
					lb, ub = int(c-'0'), int(c-'0')
				default:
					return nil, fd.Malformed("cell %d holds %q", row*9+col, c)
				}
			}
			s.cells[row][col] = s.model.IntVar(GetName(row, col), lb, ub)
		}
	}

	var groups [][]*fd.IntVar
	// every row and every column has unique numbers
	for i := 0; i < 9; i++ {
		row := make([]*fd.IntVar, 9)
		col := make([]*fd.IntVar, 9)
		for j := 0; j < 9; j++ {
			row[j] = s.cells[i][j]
			col[j] = s.cells[j][i]
		}
		groups = append(groups, row, col)
	}
	// every box has unique numbers
	for x := 0; x < 9; x += 3 {
		for y := 0; y < 9; y += 3 {
			box := make([]*fd.IntVar, 0, 9)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					box = append(box, s.cells[x+i][y+j])
				}
			}
			groups = append(groups, box)
		}
	}
	for _, g := range groups {
		c, err := constraint.AllDifferent(g, level)
		if err != nil {
			return nil, err
		}
		if err := c.Post(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sudoku) Model() *fd.Model {
	return s.model
}

// Strategy fills the cells in first-fail order with random values, so
// that a blank board yields a new grid for every seed.
func (s *Sudoku) Strategy(seed int64) fd.Strategy {
	return strategy.IntSearch(strategy.FirstFail, strategy.RandomValue(seed), s.model.IntVars()...)
}

// Board prints the solution one row per line.
func (s *Sudoku) Board(sol *solver.Solution) string {
	var b strings.Builder
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if col != 0 {
				b.WriteByte(' ')
			}
			if val, ok := sol.IntVal(s.cells[row][col]); ok {
				fmt.Fprintf(&b, "%d", val)
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Cell returns the variable of a cell.
func (s *Sudoku) Cell(row, col int) *fd.IntVar {
	return s.cells[row][col]
}

// Package player lets a human play against the AI in a terminal.
package player

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"tictactoe/game"
	"tictactoe/gamemaster"

	"github.com/muesli/termenv"
	"github.com/pkg/errors"
)

type Controller interface {
	Run() error
}

type consoleController struct {
	gm      *gamemaster.GameMaster
	options gamemaster.SessionOptions
	in      *bufio.Scanner
	out     *termenv.Output
}

// NewConsoleController plays one game per Run, reading keypad moves (1-9) from
// in. Colours follow profile.
func NewConsoleController(gm *gamemaster.GameMaster, options gamemaster.SessionOptions, in io.Reader, out io.Writer, profile termenv.Profile) Controller {
	return &consoleController{
		gm:      gm,
		options: options,
		in:      bufio.NewScanner(in),
		out:     termenv.NewOutput(out, termenv.WithProfile(profile)),
	}
}

func (c *consoleController) Run() error {
	snapshot, err := c.gm.NewSession(c.options)
	if err != nil {
		return errors.Wrap(err, "failed to start game")
	}
	defer c.gm.Delete(snapshot.SessionID)

	fmt.Fprintf(c.out, "You are %s. Enter 1-9 as on a keypad, q to quit.\n", c.mark(snapshot.HumanSymbol.Cell()))
	for {
		c.render(snapshot)
		if snapshot.Status != game.InProgress {
			fmt.Fprintln(c.out, c.outcome(snapshot))
			return nil
		}

		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return errors.Wrap(err, "failed to read move")
			}
			return nil // EOF
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "q" || line == "quit" {
			return nil
		}
		raw, err := strconv.Atoi(line)
		if err != nil || raw < 1 || raw > game.Cells {
			fmt.Fprintln(c.out, c.warn("Enter a number from 1 to 9."))
			continue
		}

		next, err := c.gm.Turn(snapshot.SessionID, raw)
		var illegal *gamemaster.IllegalMoveError
		switch {
		case errors.As(err, &illegal):
			fmt.Fprintln(c.out, c.warn(fmt.Sprintf("Cell %d is taken.", raw)))
			continue
		case err != nil:
			return errors.Wrap(err, "failed to play move")
		}
		snapshot = next
	}
}

func (c *consoleController) render(snapshot gamemaster.Snapshot) {
	winning := map[int]bool{}
	for _, i := range snapshot.WinningLine {
		winning[i] = true
	}

	for row := 0; row < game.Size; row++ {
		cells := make([]string, game.Size)
		for col := 0; col < game.Size; col++ {
			index := row*game.Size + col
			cells[col] = c.cell(snapshot.Board[index], index, winning[index])
		}
		fmt.Fprintf(c.out, " %s\n", strings.Join(cells, " | "))
		if row < game.Size-1 {
			fmt.Fprintln(c.out, "---+---+---")
		}
	}
}

func (c *consoleController) cell(value string, index int, winning bool) string {
	switch value {
	case "X":
		s := c.out.String("X").Foreground(c.out.Color("1"))
		if winning {
			s = s.Bold().Underline()
		}
		return s.String()
	case "O":
		s := c.out.String("O").Foreground(c.out.Color("4"))
		if winning {
			s = s.Bold().Underline()
		}
		return s.String()
	default:
		keypad, _ := game.IndexToKeypad(index)
		return c.out.String(strconv.Itoa(keypad)).Faint().String()
	}
}

func (c *consoleController) mark(cell game.Cell) string {
	return c.cell(cell.String(), 0, false)
}

func (c *consoleController) warn(message string) string {
	return c.out.String(message).Foreground(c.out.Color("3")).String()
}

func (c *consoleController) outcome(snapshot gamemaster.Snapshot) string {
	switch {
	case snapshot.Status == game.Draw:
		return "Draw."
	case snapshot.Status.Won(snapshot.HumanSymbol):
		return c.out.String("You win!").Bold().String()
	default:
		return c.out.String("You lose.").Bold().String()
	}
}

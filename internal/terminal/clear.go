// Package terminal provides utilities for terminal operations such as clearing
// text and reading secrets without echo.
package terminal

import (
	"os"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

// defaultWidth is used when the terminal size cannot be read.
const defaultWidth = 80

// Width returns the width of the terminal attached to stdout.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// LinesFor reports how many rows textLength characters occupy at width columns.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	n := (textLength + width - 1) / width
	if n < 1 {
		n = 1
	}
	return n
}

// ClearPreviousLines erases text the cursor is still positioned after, such as
// a prompt whose input was read without echo.
//
// Parameters:
//   - textLength: The total number of characters in the text to clear
func ClearPreviousLines(textLength int) {
	lines := LinesFor(textLength, Width())
	cursor.StartOfLine()
	cursor.ClearLine()
	if lines > 1 {
		cursor.ClearLinesUp(lines - 1)
	}
}

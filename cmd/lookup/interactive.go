package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

// interactiveSelect lets the user move through lines with the arrow keys and
// press Enter to call onSelect for the highlighted one. Falls back to printing
// the lines when stdin is not a terminal.
func interactiveSelect(lines []string, onSelect func(i int)) {
	if len(lines) == 0 {
		return
	}

	if runtime.GOOS == "windows" {
		enableVT()
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		for _, l := range lines {
			fmt.Println(l)
		}
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	reader := bufio.NewReader(os.Stdin)
	selected := 0

	// Raw mode disables output post-processing, hence the explicit \r.
	redraw := func() {
		fmt.Print("\033[H\033[2J")
		for i, l := range lines {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Print(prefix + l + "\r\n")
		}
		fmt.Print("(↑/↓ to pick a tax year, Enter for the levy breakdown, Esc to quit)\r\n")
	}

	show := func() bool {
		_ = term.Restore(fd, oldState)
		fmt.Println()
		onSelect(selected)

		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		oldState, err = term.MakeRaw(fd)
		if err != nil {
			return false
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	up := func() {
		if selected > 0 {
			selected--
			redraw()
		}
	}
	down := func() {
		if selected < len(lines)-1 {
			selected++
			redraw()
		}
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		// Windows console arrow sequences: 0 or 224, then the key code.
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72:
				up()
			case 80:
				down()
			case 13:
				if !show() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				up()
			case 'B':
				down()
			}
		case '\r', '\n':
			if !show() {
				return
			}
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return
		}
	}
}

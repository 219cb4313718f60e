package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════╗
    ║  ▀█▀ █ █ █▀▄▀█ █▄▄ █   █▀█   █▀█ █ █▀█ █▀█ █▀▀ █▀█  ║
    ║   █  █▄█ █ ▀ █ █▄█ █▄▄ █▀▄   █▀▄ █ █▀▀ █▀▀ ██▄ █▀▄  ║
    ║          PHOTO AND VIDEO DOWNLOADER FOR TUMBLR       ║
    ╚════════════════════════════════════════════════════╝
`

// Usage is printed when no source names could be found
const Usage = `You should specify the sites you want to download media from:

    tumblr-ripper site1,site2

or write their names, separated by commas or new lines, into a file
named tumblr_names.txt (or the file given with --sources-file) and run:

    tumblr-ripper

Media is saved to downloads/<site>/.`

var (
	out     io.Writer = os.Stdout
	noColor atomic.Bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// SetNoColor disables ANSI colors
func SetNoColor(disabled bool) {
	noColor.Store(disabled)
}

// SetOutput redirects terminal output. Nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(out, Cyan(ASCIILogo))
}

// PrintUsage prints how to name the sources to rip
func PrintUsage() {
	fmt.Fprintln(out, Yellow(Usage))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(out, Magenta(msg))
}

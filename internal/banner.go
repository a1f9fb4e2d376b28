package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// printBanner writes the human-facing startup lines. Colour is only used
// when w is a terminal.
func printBanner(w io.Writer, url, root string) {
	if w == nil {
		return
	}
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		bold.DisableColor()
		cyan.DisableColor()
	}

	_, _ = bold.Fprint(w, "mdexplorer running at ")
	_, _ = cyan.Fprintln(w, url)
	_, _ = fmt.Fprintf(w, "Root directory: %s\n", root)
}

// publicURL is the address a browser on this machine should open.
func publicURL(c HTTPConfig) string {
	host := c.Host
	switch host {
	case "", "0.0.0.0", "127.0.0.1", "::", "::1":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", (&HTTPConfig{Host: host, Port: c.Port}).Address())
}

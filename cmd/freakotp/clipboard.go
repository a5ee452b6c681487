// ABOUTME: Terminal clipboard integration via the OSC 52 escape sequence
// ABOUTME: Wraps the sequence for tmux passthrough when running inside tmux

package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

// copyToClipboard emits an OSC 52 sequence setting the terminal
// clipboard. Works over SSH with any terminal that supports OSC 52.
func copyToClipboard(w io.Writer, text string) {
	data := base64.StdEncoding.EncodeToString([]byte(text))
	seq := "\x1b]52;c;" + data + "\a"
	if os.Getenv("TMUX") != "" {
		// tmux needs the sequence wrapped in a DCS passthrough
		seq = "\x1bPtmux;\x1b" + seq + "\x1b\\"
	}
	fmt.Fprint(w, seq)
}

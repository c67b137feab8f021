package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vburojevic/dwell/internal/domain"
)

// ConfirmCmd blocks until the confirmation phrase is typed. Exec hooks use
// it to gate dismissal of a final-level intervention.
type ConfirmCmd struct {
	Message string `arg:"" optional:"" help:"Text shown above the prompt"`

	in io.Reader
}

// Run executes the confirm command
func (c *ConfirmCmd) Run(globals *Globals) error {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	if c.Message != "" {
		fmt.Fprintln(globals.Stderr, c.Message)
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(globals.Stderr, "Type %q to continue: ", domain.ConfirmPhrase)
		if !sc.Scan() {
			fmt.Fprintln(globals.Stderr)
			return outputErrorCommon(globals, "NOT_CONFIRMED", "input closed before the phrase was typed")
		}
		if domain.Confirmed(sc.Text()) {
			return nil
		}
		if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		fmt.Fprintln(globals.Stderr, "That does not match.")
	}
}

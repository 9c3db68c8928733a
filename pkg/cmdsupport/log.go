package cmdsupport

import (
	"io"
	"log"
)

func init() {
	// Silence the default logger; the engine's own logging package handles
	// output for anything that matters to the CLI.
	log.SetOutput(io.Discard)
}

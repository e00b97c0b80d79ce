// Command csyncd runs the csync server: the HTTP surface (C9), the events
// TCP server (C7) and the recycler (C8) over a shared sqlite store, event
// bus and revision register.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

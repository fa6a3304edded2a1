// Command supabase-demo exercises a project from the terminal: sign-up and
// sign-in, magic links, OAuth, a guestbook table and a realtime chat room.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

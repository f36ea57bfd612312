// tsmap maps TypeScript and JavaScript projects.
//
// It follows the imports of an entry file into a dependency graph and
// extracts the attention nodes (imports, declarations, calls, JSX and
// exports) a reader needs to follow each file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Benny93/tsmap/cmd"
)

func main() {
	// A missing .env is fine; TSMAP_* variables may come from the shell.
	_ = godotenv.Load()

	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

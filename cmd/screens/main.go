// Command screens builds metadata-driven detail views from stored screen
// definitions.
package main

import "github.com/mesh-intelligence/screens/internal/cli"

func main() {
	cli.Execute()
}

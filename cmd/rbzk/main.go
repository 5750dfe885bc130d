// Command rbzk is a CLI client for ZKTeco biometric terminals.
package main

import "github.com/rbzk/rbzk/cmd/rbzk/commands"

func main() {
	commands.Execute()
}

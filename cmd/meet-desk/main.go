// Command meet-desk runs and drives a powerlifting judging desk.
package main

import "github.com/oshokin/meet-desk/cmd/meet-desk/cmd"

func main() {
	cmd.Execute()
}

package main

import "parlor/cmd/parlor/cmd"

func main() {
	cmd.Execute()
}

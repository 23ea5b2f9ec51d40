package main

import "github.com/curaious/dashboard/cmd"

func main() {
	cmd.Execute()
}

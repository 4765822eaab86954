package main

import "github.com/jmcleod/silentlock/cmd/silentlock/cmd"

func main() {
	cmd.Execute()
}

package main

import "tmrelay/cmd"

func main() {
	cmd.Execute()
}

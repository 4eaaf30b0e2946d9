package main

import "github.com/nucleus-apple/sidecar/cmd"

func main() {
	cmd.Execute()
}

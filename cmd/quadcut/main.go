package main

import "github.com/MeKo-Tech/quadcut/cmd/quadcut/cmd"

func main() {
	cmd.Execute()
}

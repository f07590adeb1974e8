package main

import "github.com/neo/turring_backend/cmd"

func main() {
	cmd.Execute()
}

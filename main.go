package main

import "github.com/quanlynhankhau/registry-api/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/dbsmedya/riskbench/cmd/riskbench/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ifitclub/clubstats/internal/cmd"

func main() {
	cmd.Execute()
}

package main

import "musd-rewards-watcher/internal/cli"

func main() {
	cli.Execute()
}

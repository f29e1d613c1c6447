package main

import "github.com/relenghq/releng/cmd"

func main() {
	cmd.Execute()
}

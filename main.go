package main

import "github.com/alapierre/go-fattura/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/jsphweid/perturbdex/cmd"

func main() {
	cmd.Execute()
}

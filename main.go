package main

import "github.com/nextlevelbuilder/droidbench/cmd"

func main() {
	cmd.Execute()
}

package main

import "relation-manager/cmd"

func main() {
	cmd.Execute()
}

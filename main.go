package main

import "github.com/dmorgan81/imagegen/cmd"

func main() {
	cmd.Execute()
}

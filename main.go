package main

import "guidesearch/cmd"

func main() {
	cmd.Execute()
}

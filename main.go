package main

import "github.com/vikas-lamba/sutwire/cmd"

func main() {
	cmd.Execute()
}

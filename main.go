package main

import "github.com/ValentinKolb/kvsd/cmd"

func main() {
	cmd.Execute()
}

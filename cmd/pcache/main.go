package main

import "github.com/ZanzyTHEbar/payload-cache/pcache/cli"

func main() {
	cli.Execute()
}

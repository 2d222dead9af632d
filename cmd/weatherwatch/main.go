package main

import "github.com/vietddude/weatherwatch/internal/cli"

func main() {
	cli.Execute()
}

package main

import "squad-ladder/internal/cli"

func main() {
	cli.Execute()
}

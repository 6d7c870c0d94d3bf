package main

import "github.com/jogardn/fireworks-storefront/internal/cmd"

func main() {
	cmd.Execute()
}

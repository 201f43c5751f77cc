package main

import (
	"tradeledger/internal/cli"
)

func main() {
	cli.Execute()
}

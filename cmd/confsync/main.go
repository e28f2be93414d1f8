package main

import (
	"github.com/confsync/confsync/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}

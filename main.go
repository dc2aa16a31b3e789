package main

import "github.com/ytleenf/ytclient/cmd"

func main() {
	cmd.Execute()
}

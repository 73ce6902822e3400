package main

import "github.com/vibast-solutions/ms-go-entitlements/cmd"

func main() {
	cmd.Execute()
}

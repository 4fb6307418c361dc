// Package main is the entry point for duetgate, the dual-AI UI
// generation broker.
package main

func main() {
	Execute()
}

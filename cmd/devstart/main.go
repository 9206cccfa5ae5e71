// Package main is the entry point for devstart, the development launcher for
// the Reflective Journal API.
package main

func main() {
	Execute()
}

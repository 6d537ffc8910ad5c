// Package main provides the entry point for the wdglance CLI.
//
// wdglance queries a set of corpus backends for one or more words and
// collects the results of all configured tiles. It runs either as an
// HTTP/WebSocket server or as a one-shot command writing a report.
//
// Usage:
//
//	wdglance serve
//	wdglance query <word>...
//	wdglance query --batch <file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}

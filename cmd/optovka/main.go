// Package main provides the entry point for the optovka CLI.
//
// optovka crawls the optoviki.kz wholesale directory and stores its
// categories, subcategories, suppliers and products in a local database.
//
// Usage:
//
//	optovka crawl
//	optovka list suppliers --category optom-odezhda
//	optovka history
//
// See --help for all available options.
package main

func main() {
	Execute()
}

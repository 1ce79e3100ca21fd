// Command siteadmin runs maintenance tasks against the site database.
package main

func main() {
	Execute()
}

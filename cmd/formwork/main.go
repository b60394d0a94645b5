// Command formwork serves and inspects form templates.
package main

func main() {
	Execute()
}

package main

import "github.com/evcare-vn/evcare_backend/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/oscar066/kiduka-cli/cmd/kiduka"

func main() {
	kiduka.Execute()
}

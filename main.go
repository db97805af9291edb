package main

import "github.com/DARKSNOUT/ETL-Pipeline/cmd"

func main() {
	cmd.Execute()
}

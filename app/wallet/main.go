package main

import "github.com/powchain/powchain/app/wallet/cmd"

func main() {
	cmd.Execute()
}

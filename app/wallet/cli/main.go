package main

import "github.com/openwager/wagerchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}

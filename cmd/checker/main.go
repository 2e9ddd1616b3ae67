// Command checker decides whether scheduled Opium deposits or withdrawals
// can be executed and serves that decision to the automation network.
//
// Usage:
//
//	checker check --type deposit --scheduler 0x... --subgraph opium-staking
//	checker serve
//	checker watch
//	checker migrate
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

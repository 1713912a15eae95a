// assetsync reconciles timestamped asset observations into a DynamoDB
// table, keeping only the newest observation of every asset.
//
// # Commands
//
//	assetsync ingest [file|-]   Reconcile observations read from JSON
//	assetsync get               Show one stored asset
//	assetsync list              Show all stored assets of an account
//	assetsync demo              Run the sample sequence
//
// # Storage
//
// By default assets are kept in a local BadgerDB directory. Select real
// DynamoDB (or DynamoDB Local via --endpoint) with --backend dynamodb.
//
//	assetsync ingest observations.json --event-time 2023-03-01T00:00:00Z
//	assetsync get --account 2 --asset 00000000-0000-0000-0000-0000000000b1 -o yaml
//	assetsync demo --log-level debug
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{stdout: os.Stdout}
	err := newRootCmd(a).ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "assetsync: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

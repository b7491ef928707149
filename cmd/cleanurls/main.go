// cmd/cleanurls/main.go
//
// cleanurls operator CLI.
//
//	cleanurls check   [--url URL] [--static PATH] [--dir PATH]
//	cleanurls clean   URL...
//	cleanurls unclean URL...
//	cleanurls purge   [--event NAME --id N [--course N] [--mod NAME]]
//
// Every command except check needs the site configuration; check only
// needs it when --url is omitted.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

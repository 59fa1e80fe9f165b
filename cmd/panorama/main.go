package main

import (
	"context"

	"ibge-panorama/cmd/panorama/commands"
	"ibge-panorama/lib/util/serviceutil"
)

func main() {
	ctx, stop := serviceutil.SignalContext(context.Background())
	defer stop()
	commands.ExecuteContext(ctx)
}

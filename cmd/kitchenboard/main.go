// kitchenboard renders the kitchen queue in a terminal, refreshing on the
// same cadence as the web board. Useful for a kitchen display with nothing
// but a shell on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"comanda/pkg/client"
	"comanda/pkg/status"
)

func main() {
	apiURL := flag.String("api", envOr("API_URL", "http://localhost:8080"), "base URL of the orders API")
	token := flag.String("token", os.Getenv("API_TOKEN"), "bearer token, when the API requires auth")
	interval := flag.Duration("interval", client.DefaultKitchenInterval, "refresh interval")
	flag.Parse()

	opts := []client.Option{}
	if *token != "" {
		opts = append(opts, client.WithToken(*token))
	}
	api := client.New(*apiURL, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := client.NewKitchenPoller(api, *interval, func(orders []client.Order, err error) {
		if err != nil {
			log.Printf("Failed to load kitchen orders: %v", err)
			return
		}
		render(orders)
	})
	poller.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	poller.Stop()
	fmt.Println("kitchen board stopped")
}

func render(orders []client.Order) {
	fmt.Printf("\n== Kitchen %s ==\n", time.Now().Format("15:04:05"))

	columns := []status.Kitchen{status.Waiting, status.Preparing, status.Ready}
	for _, stage := range columns {
		var rows []string
		for _, o := range orders {
			if normalized(o.KitchenStatus) != stage {
				continue
			}
			rows = append(rows, fmt.Sprintf("  #%d  %s  (%d items)", o.ID, o.Table.Name, len(o.Items)))
		}
		fmt.Printf("%s (%d)\n", stage, len(rows))
		if len(rows) == 0 {
			fmt.Println("  -")
			continue
		}
		fmt.Println(strings.Join(rows, "\n"))
	}
}

// normalized folds legacy orders without a kitchen status into Waiting,
// the same way the web board shows them.
func normalized(k status.Kitchen) status.Kitchen {
	if k == "" {
		return status.Waiting
	}
	return k
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

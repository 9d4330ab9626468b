package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/config"
	"github.com/muraqqa/storefront/pkg/db"
	"github.com/muraqqa/storefront/pkg/logger"
)

// browse drives the catalog filter engine from a terminal: the same store,
// address synchronizer and debounced executor a catalog page uses.
func main() {
	query := flag.String("query", "", "initial catalog query string, e.g. category=Painting&sort=price_asc")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "browse", Level: logger.ParseLevel("warn"), Output: os.Stderr})
	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	provider, err := catalog.NewService(catalog.ServiceParams{
		Repo:      catalog.NewRepository(dbClient.DB()),
		PageLimit: cfg.Catalog.PageLimit,
		Logger:    logg,
	})
	requireResource(logg, "catalog", err)

	bounds, err := provider.Bounds(ctx)
	requireResource(logg, "catalog bounds", err)

	bar, err := newAddressBar(*query)
	requireResource(logg, "query", err)

	store := catalog.NewStore(bounds)
	urlSync := catalog.NewSynchronizer(store, bar)
	defer urlSync.Close()

	executor, err := catalog.NewExecutor(provider,
		catalog.WithDebounce(cfg.Catalog.Debounce),
		catalog.WithLogger(logg),
		catalog.WithContext(ctx),
	)
	requireResource(logg, "executor", err)
	defer executor.Close()

	executor.OnChange(func(state catalog.State) {
		fmt.Print(render(state))
		fmt.Println(bar.String())
	})
	store.Subscribe(executor.Submit)

	if !urlSync.Restore(bounds) {
		fmt.Println("catalog is empty; filters stay at defaults")
	}
	executor.Submit(store.Criteria())

	fmt.Println(helpText)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "help" {
			fmt.Println(helpText)
			continue
		}
		if line == "url" {
			fmt.Println(bar.String())
			continue
		}
		refresh, err := apply(store, line)
		var quit errQuit
		switch {
		case errors.As(err, &quit):
			return
		case err != nil:
			fmt.Println(err)
		case refresh && !executor.Refresh():
			fmt.Println("nothing to refresh yet")
		}
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

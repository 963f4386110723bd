// Command cli is a development and administration tool for the stockroom
// data layer. It drives the library directly against the configured database
// file; sessions last for one invocation, so product commands take the
// credentials they authenticate with.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/internal/featureflags"
	"github.com/yourorg/stockroom/internal/infrastructure/logger"
	"github.com/yourorg/stockroom/internal/observability/tracing"
	"github.com/yourorg/stockroom/internal/repository"
	"github.com/yourorg/stockroom/internal/security/ratelimit"
	"github.com/yourorg/stockroom/internal/service"
	"github.com/yourorg/stockroom/internal/worker"
	"github.com/yourorg/stockroom/pkg/config"
	"github.com/yourorg/stockroom/pkg/storage"
)

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	engine   *storage.Engine
	users    *repository.SQLiteUserRepository
	products *repository.SQLiteProductRepository
	auth     *service.AuthService
	facade   *service.ProductService
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	slog.SetDefault(log)

	ctx := context.Background()
	shutdown, err := tracing.Init(ctx, log, "stockroom", cfg.Environment)
	if err != nil {
		log.Warn("tracing init failed", slog.String("error", err.Error()))
	} else {
		defer func() { _ = shutdown(ctx) }()
	}

	engine := storage.New(cfg.DBPath, log)
	defer engine.Close()

	users := repository.NewSQLiteUserRepository(engine, log, cfg.BcryptCost)
	products := repository.NewSQLiteProductRepository(engine, log, cfg.LowStockThreshold)
	limiter := ratelimit.NewLimiter(cfg.LoginAttemptsPerMinute, time.Minute)
	defer limiter.Stop()

	auth := service.NewAuthService(users, limiter, nil, cfg.TokenSecret, cfg.RememberMeTTL, log)
	facade := service.NewProductService(products, auth, nil, log)

	a := &app{cfg: cfg, log: log, engine: engine, users: users, products: products, auth: auth, facade: facade}

	switch os.Args[1] {
	case "auth":
		a.handleAuth(ctx, os.Args[2:])
	case "user":
		a.handleUser(ctx, os.Args[2:])
	case "product":
		a.handleProduct(ctx, os.Args[2:])
	case "purge":
		a.handlePurge(ctx, os.Args[2:])
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func (a *app) handleAuth(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: stockroom auth <register|login>")
		return
	}

	switch args[0] {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(args[1:])

		user, err := a.auth.Register(ctx, domain.UserInput{Name: *name, Email: *email, Password: *password})
		if err != nil {
			fatal("register failed: %v", err)
		}
		fmt.Printf("registered user %d (%s)\n", user.ID, user.Email)
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		remember := fs.Bool("remember", false, "print a remember-me token")
		fs.Parse(args[1:])

		user, err := a.auth.Login(ctx, *email, *password)
		if err != nil {
			fatal("login failed: %v", err)
		}
		fmt.Printf("logged in as %s (user %d)\n", user.Email, user.ID)
		if *remember {
			token, err := a.auth.RememberMeToken()
			if err != nil {
				fatal("token: %v", err)
			}
			fmt.Println(token)
		}
	default:
		fmt.Println("Usage: stockroom auth <register|login>")
	}
}

func (a *app) handleUser(ctx context.Context, args []string) {
	if len(args) < 1 || args[0] != "list" {
		fmt.Println("Usage: stockroom user list")
		return
	}

	users, err := a.users.GetAll(ctx)
	if err != nil {
		fatal("list users: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func (a *app) handleProduct(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: stockroom product <add|list|get|update|delete|stats>")
		return
	}

	sub := args[0]
	fs := flag.NewFlagSet(sub, flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	id := fs.Int64("id", 0, "product id")
	name := fs.String("name", "", "product name")
	desc := fs.String("desc", "", "product description")
	quantity := fs.Int64("quantity", 0, "product quantity")
	active := fs.Bool("active", true, "active flag")
	all := fs.Bool("all", false, "include soft-deleted products")
	fs.Parse(args[1:])

	if _, err := a.auth.Login(ctx, *email, *password); err != nil {
		fatal("login failed: %v", err)
	}

	switch sub {
	case "add":
		newID, err := a.facade.Add(ctx, domain.ProductInput{Name: *name, Description: *desc, Quantity: *quantity})
		if err != nil {
			fatal("add product: %v", err)
		}
		fmt.Printf("created product %d\n", newID)
	case "list":
		if err := a.facade.Load(ctx, *all); err != nil {
			fatal("list products: %v", err)
		}
		printProducts(a.facade.Products())
	case "get":
		product, err := a.facade.Get(ctx, *id)
		if err != nil {
			fatal("get product: %v", err)
		}
		printProducts([]domain.Product{*product})
	case "update":
		upd := domain.ProductUpdate{}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				upd.Name = name
			case "desc":
				upd.Description = desc
			case "quantity":
				upd.Quantity = quantity
			case "active":
				upd.Active = active
			}
		})
		changed, err := a.facade.Update(ctx, *id, upd)
		if err != nil {
			fatal("update product: %v", err)
		}
		if !changed {
			fmt.Println("no fields supplied or no matching product")
			return
		}
		fmt.Printf("updated product %d\n", *id)
	case "delete":
		deleted, err := a.facade.Delete(ctx, *id)
		if err != nil {
			fatal("delete product: %v", err)
		}
		if !deleted {
			fmt.Println("no matching product")
			return
		}
		fmt.Printf("deleted product %d (kept as inactive)\n", *id)
	case "stats":
		stats, err := a.facade.Stats(ctx)
		if err != nil {
			fatal("product stats: %v", err)
		}
		fmt.Printf("total: %d\nactive: %d\nlow stock: %d\n", stats.Total, stats.Active, stats.LowStock)
	default:
		fmt.Println("Usage: stockroom product <add|list|get|update|delete|stats>")
	}
}

func (a *app) handlePurge(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: stockroom purge <once|watch>")
		return
	}

	purger := worker.NewPurgeWorker(a.products, a.log, a.cfg.PurgeInterval, a.cfg.PurgeRetention)

	switch args[0] {
	case "once":
		removed, err := purger.RunOnce(ctx)
		if err != nil {
			fatal("purge: %v", err)
		}
		fmt.Printf("purged %d products\n", removed)
	case "watch":
		if !featureflags.Enabled("purge") {
			fatal("purge watch requires FLAG_PURGE=1")
		}

		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		metricsAddr := fs.String("metrics-addr", "", "address to serve /metrics on (optional)")
		fs.Parse(args[1:])

		if *metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			go func() {
				if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
					a.log.Error("metrics listener failed", slog.String("error", err.Error()))
				}
			}()
		}

		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
		purger.Start(ctx)
	default:
		fmt.Println("Usage: stockroom purge <once|watch>")
	}
}

func printProducts(products []domain.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tACTIVE\tCREATED\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%d\t%t\t%s\t%s\n",
			p.ID, p.Name, p.Quantity, p.Active, p.CreatedAt.Format(time.RFC3339), p.Description)
	}
	w.Flush()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`stockroom - embedded inventory data layer

Usage:
  stockroom auth register -name NAME -email EMAIL -password PASS
  stockroom auth login -email EMAIL -password PASS [-remember]
  stockroom user list
  stockroom product add -email EMAIL -password PASS -name NAME [-desc TEXT] [-quantity N]
  stockroom product list -email EMAIL -password PASS [-all]
  stockroom product get -email EMAIL -password PASS -id ID
  stockroom product update -email EMAIL -password PASS -id ID [-name NAME] [-desc TEXT] [-quantity N] [-active=BOOL]
  stockroom product delete -email EMAIL -password PASS -id ID
  stockroom product stats -email EMAIL -password PASS
  stockroom purge once
  stockroom purge watch [-metrics-addr :9090]   (requires FLAG_PURGE=1)`)
}

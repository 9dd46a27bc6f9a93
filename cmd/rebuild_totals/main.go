// rebuild_totals recalcula products.total_stock como la suma del stock activo por bodega
// y corrige los productos desalineados. Aplica el esquema si aún no existe.
//
// Uso: go run ./cmd/rebuild_totals [-dry-run]
// Lee la misma configuración que la API (DATABASE_URL, DB_HOST, ...).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stockledger/internal/application/access"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/unitofwork"
	"github.com/jhoicas/stockledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/jhoicas/stockledger/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "solo reporta los productos desalineados")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conectar a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migrar esquema: %v\n", err)
		os.Exit(1)
	}

	repos := postgres.ReposFor(pool)
	if *dryRun {
		products, err := repos.Products.ListActive(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listar productos: %v\n", err)
			os.Exit(1)
		}
		drift := 0
		for _, p := range products {
			sum, err := repos.Stocks.SumActiveByProduct(ctx, p.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Sumar stock de %s: %v\n", p.ID, err)
				os.Exit(1)
			}
			if sum != p.TotalStock {
				drift++
				fmt.Printf("%s\t%s\ttotal=%d\tsuma=%d\n", p.ID, p.Name, p.TotalStock, sum)
			}
		}
		fmt.Printf("Productos desalineados: %d de %d\n", drift, len(products))
		return
	}

	uow := unitofwork.NewRunner(postgres.NewTxRunner(pool, cfg.DB.LockTimeout), unitofwork.NewLocalKeyLocker(), unitofwork.Config{
		Timeout:     cfg.Engine.UnitTimeout,
		MaxAttempts: cfg.Engine.MaxAttempts,
	}, log)
	recorder := audit.NewRecorder(repos.AuditLogs, log, cfg.Engine.AuditTimeout)
	engine := inventory.NewEngine(uow, repos, access.NewAuthority(uow, repos, recorder), recorder, nil, log)

	corrected, err := engine.RebuildTotals(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recalcular totales: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Productos corregidos: %d\n", corrected)
}

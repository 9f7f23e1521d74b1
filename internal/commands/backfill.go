package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marceleta/crypto-monitor/internal/backfill"
	"github.com/marceleta/crypto-monitor/internal/database"
	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/logger"
)

var (
	backfillSymbol string
	backfillFrom   string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill historical quotes for a token",
	Long: `Fill missing daily quotes for a tracked token.

Only dates with no stored quote are fetched; re-running the command for an
already complete range performs no writes.

Examples:
  # Fill gaps from a given date up to today
  crypto-monitor backfill --symbol BTCUSD --from 2024-01-01

  # Fill gaps from the earliest purchase of the token
  crypto-monitor backfill --symbol BTCUSD`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillSymbol, "symbol", "", "Token symbol to backfill (e.g. BTCUSD)")
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "Start date (YYYY-MM-DD); defaults to the token's earliest purchase")
	backfillCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	mysqlClient, err := database.NewMySQLClient(&cfg.MySQL, log)
	if err != nil {
		return fmt.Errorf("failed to create MySQL client: %w", err)
	}
	defer mysqlClient.Close()

	ctx := context.Background()

	token, err := mysqlClient.GetTokenBySymbol(ctx, backfillSymbol)
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}
	if token == nil {
		return fmt.Errorf("unknown token symbol: %s", backfillSymbol)
	}

	from, err := resolveBackfillStart(ctx, mysqlClient, token.ID)
	if err != nil {
		return err
	}

	orchestrator := backfill.NewOrchestrator(
		mysqlClient,
		mysqlClient,
		mysqlClient,
		exchange.DefaultRegistry(),
		&cfg.Exchange,
		log,
	)

	result, err := orchestrator.BackfillToken(ctx, token, from)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if result.NoOp {
		fmt.Printf("No missing quotes for %s\n", token.Symbol)
		return nil
	}

	fmt.Printf("Backfilled %s: %d missing dates, %d quotes stored (%s to %s)\n",
		token.Symbol,
		result.Missing,
		result.Stored,
		result.From.Format("2006-01-02"),
		result.To.Format("2006-01-02"),
	)
	return nil
}

// resolveBackfillStart picks the range start: the --from flag when given,
// otherwise the token's earliest purchase date.
func resolveBackfillStart(ctx context.Context, db *database.MySQLClient, tokenID int64) (time.Time, error) {
	if backfillFrom != "" {
		from, err := time.ParseInLocation("2006-01-02", backfillFrom, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
		return from, nil
	}

	earliest, err := db.EarliestPurchaseDate(ctx, tokenID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve earliest purchase: %w", err)
	}
	if earliest.IsZero() {
		return time.Time{}, fmt.Errorf("no purchases recorded for token; pass --from")
	}
	return earliest, nil
}

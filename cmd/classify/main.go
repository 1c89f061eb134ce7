// Package main is a one-shot CLI that classifies the holders of a token
// and prints the result, without starting the monitoring service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"holder-sentinel/internal/activity"
	"holder-sentinel/internal/classifier"
	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
	"holder-sentinel/internal/logging"
)

func main() {
	_ = godotenv.Load()

	tokenAddress := flag.String("token", "", "Token mint address to classify (required)")
	network := flag.String("network", "mainnet", "Network to query (mainnet or devnet)")
	rpcURL := flag.String("rpc-url", os.Getenv("RPC_URL"), "JSON-RPC endpoint (defaults to RPC_URL env)")
	holderLimit := flag.Int("holder-limit", 100, "How many top holders to fetch")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall run timeout")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *tokenAddress == "" {
		fmt.Fprintln(os.Stderr, "Error: --token is required")
		flag.Usage()
		os.Exit(1)
	}
	if *rpcURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-url or the RPC_URL env variable is required")
		os.Exit(1)
	}
	if err := ledger.ValidateAddress(*tokenAddress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid token address: %v\n", err)
		os.Exit(1)
	}
	net := domain.Network(*network)
	if !net.IsValid() {
		fmt.Fprintf(os.Stderr, "Error: invalid network %q\n", *network)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gateway := ledger.NewHTTPClient(*rpcURL)
	service := classifier.NewService(classifier.ServiceOptions{
		Classifier:  classifier.New(classifier.DefaultConfig(), activity.NewSummarizer(gateway, logger), logger),
		Gateway:     gateway,
		HolderLimit: *holderLimit,
		Logger:      logger,
	})

	result, err := service.ClassifyHolders(ctx, *tokenAddress, net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: classification failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printResult(result)
}

func printResult(result *domain.ClassificationResult) {
	fmt.Printf("Token:    %s (%s)\n", result.TokenAddress, result.Network)
	fmt.Printf("Supply:   %.0f across %d holders\n", result.TotalSupply, result.HolderCount)
	if result.Deployer != "" {
		fmt.Printf("Deployer: %s\n", result.Deployer)
	}
	fmt.Printf("Counts:   team=%d bundle=%d mev=%d\n\n",
		result.Counts.Team, result.Counts.Bundle, result.Counts.MEV)

	printGroup("Team wallets", result.TeamWallets)
	printGroup("Bundle wallets", result.BundleWallets)
	printGroup("MEV wallets", result.MEVWallets)
}

func printGroup(title string, wallets []domain.ClassifiedWallet) {
	if len(wallets) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, w := range wallets {
		fmt.Printf("  %-44s  %8.4f%%  %-8s  %s\n",
			w.Address, w.SupplyPercentage, w.RiskLevel, w.Reason)
	}
	fmt.Println()
}

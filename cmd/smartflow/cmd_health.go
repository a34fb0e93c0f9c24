package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/smartflow/internal/pipeline"
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query a running monitor's health endpoint",
		RunE:  runHealth,
	}
	cmd.Flags().String("addr", "http://localhost:8089", "Base URL of the running monitor")
	return cmd
}

func runHealth(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, addr+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health request: unexpected status %d", resp.StatusCode)
	}

	var rep pipeline.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	fmt.Printf("Uptime      %s\n", rep.Uptime)
	fmt.Printf("Ticks       %d (aborted %d)\n", rep.Ticks, rep.Aborted)
	fmt.Printf("Quality     %.2f\n", rep.QualityScore)
	if rep.LastSignal != "" {
		fmt.Printf("Last signal %s at %s\n", rep.LastSignal, rep.LastSignalAt.Format(time.RFC3339))
	}
	if rep.LastError != "" {
		fmt.Printf("Last error  %s\n", rep.LastError)
	}
	return nil
}

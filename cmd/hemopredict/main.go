// Command hemopredict submits a single image to a hemolens server and
// prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"hemolens/internal/api"
	"hemolens/internal/client"
	"hemolens/internal/config"
)

func main() {
	cfg := config.Load()

	server := flag.String("server", cfg.ServerURL, "hemolens server base URL")
	imagePath := flag.String("image", "", "path to the eye image to submit")
	asJSON := flag.Bool("json", false, "print the raw JSON response")
	timeout := flag.Duration("timeout", cfg.ClientTimeout, "submission timeout")
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("read image: %v", err)
	}

	c := client.New(*server, &http.Client{Timeout: *timeout})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := c.Predict(ctx, data, filepath.Base(*imagePath))
	if err != nil {
		log.Fatalf("predict: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}

	switch resp.Status {
	case api.StatusOK:
		fmt.Printf("Hemoglobin: %.2f g/dL (%s)\n", *resp.HemoglobinEstimate, resp.HealthStatus)
		fmt.Printf("  %s\n", resp.HealthMessage)
		if resp.ProcessingTimeMS != nil {
			fmt.Printf("  processed in %d ms\n", *resp.ProcessingTimeMS)
		}
	case api.StatusNoEyes:
		fmt.Printf("No usable eye region: %s\n", resp.Message)
	default:
		fmt.Printf("Prediction failed: %s\n", resp.Message)
	}
}

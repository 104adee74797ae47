// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the xjsf /health endpoint returns HTTP 200 with
// status "healthy", and 1 otherwise. A host that is up but still warming a
// service reports "degraded" and fails the probe. Compile with CGO_ENABLED=0
// for a fully static binary.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"
)

func main() {
	port := os.Getenv("XJSF_PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/health")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "healthy" {
		os.Exit(1)
	}
}

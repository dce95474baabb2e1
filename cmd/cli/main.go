package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter a domain to track (e.g., example.com): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		fmt.Println("Invalid domain.")
		return
	}

	body, _ := json.Marshal(map[string]string{"domain": raw})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/targets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	// the server classifies before answering
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		return
	}
	var out struct {
		Result struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Println("Added, but could not read the response:", err)
		return
	}
	fmt.Printf("Added! %s: %s (%s)\n", raw, out.Result.Status, out.Result.Notes)
}

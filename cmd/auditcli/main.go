// Command auditcli is a thin REST client for auditord: it submits a
// single thought (read from stdin or -thought) and prints the
// resulting review as JSON.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type thoughtRequest struct {
	ThoughtNumber     int    `json:"thoughtNumber"`
	Thought           string `json:"thought"`
	BranchID          string `json:"branchId,omitempty"`
	TotalThoughts     int    `json:"totalThoughts,omitempty"`
	NextThoughtNeeded bool   `json:"nextThoughtNeeded,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
}

func main() {
	addr := flag.String("addr", getEnv("AUDITORD_ADDR", "http://localhost:8080"), "auditord base address")
	thoughtFlag := flag.String("thought", "", "thought text (reads stdin if omitted)")
	thoughtNumber := flag.Int("n", 1, "thought number within the session")
	sessionID := flag.String("session", "", "existing session ID to continue")
	branchID := flag.String("branch", "", "branch ID for exploratory side-threads")
	nextNeeded := flag.Bool("more", false, "set nextThoughtNeeded on the submitted thought")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	thought := *thoughtFlag
	if thought == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
			os.Exit(1)
		}
		thought = string(data)
	}
	if thought == "" {
		fmt.Fprintln(os.Stderr, "no thought provided: pass -thought or pipe text on stdin")
		os.Exit(1)
	}

	req := thoughtRequest{
		ThoughtNumber:     *thoughtNumber,
		Thought:           thought,
		BranchID:          *branchID,
		SessionID:         *sessionID,
		NextThoughtNeeded: *nextNeeded,
	}

	if err := submitThought(*addr, req, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "auditcli: %v\n", err)
		os.Exit(1)
	}
}

func submitThought(addr string, req thoughtRequest, timeout time.Duration) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	httpReq, err := http.NewRequest(http.MethodPost, addr+"/api/v1/thoughts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling auditord at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auditord returned %s: %s", resp.Status, string(respBody))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live roster updates",
		Long: `Connect to the server's event stream and print updates as they happen.

Events include:
  - connected: Stream opened
  - characters: The characters you can see changed
  - users: The user list changed (GM only)

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Set up cancellation
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamEvents(ctx, os.Stdout, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, jsonOutput bool) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// No timeout for SSE
	httpClient := &http.Client{}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		green.Fprintln(w, "Connected")
	}

	err = readSSE(resp.Body, func(event, data string) {
		printEvent(w, event, data, jsonOutput)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readSSE parses an event stream, calling fn once per complete event
func readSSE(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  json.RawMessage(data),
		}
		if !json.Valid(evt.Data) {
			evt.Data, _ = json.Marshal(data)
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := faint.Sprint(now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, cyan.Sprint(event), summarizeEvent(event, data))
}

// summarizeEvent renders a one-line description of an event payload
func summarizeEvent(event, data string) string {
	switch event {
	case "characters":
		var payload struct {
			Viewer     Viewer      `json:"viewer"`
			Characters []Character `json:"characters"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err == nil {
			names := make([]string, len(payload.Characters))
			for i, c := range payload.Characters {
				names[i] = c.Name
			}
			return fmt.Sprintf("%d visible as %s: %s", len(names), payload.Viewer.State, strings.Join(names, ", "))
		}
	case "users":
		var payload struct {
			Users []json.RawMessage `json:"users"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err == nil {
			return fmt.Sprintf("%d users", len(payload.Users))
		}
	}

	// Truncate data if it's too long for display
	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	return displayData
}

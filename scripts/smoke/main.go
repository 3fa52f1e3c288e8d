package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	applog "github.com/vovakirdan/msgboard-server/internal/log"
	transporthttp "github.com/vovakirdan/msgboard-server/internal/transport/http"
)

func main() {
	logger := applog.New("info", "console")
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("smoke failed")
		os.Exit(1)
	}
	logger.Info().Msg("smoke passed")
}

func run() error {
	base := flag.String("addr", "http://localhost:5000", "API base URL")
	name := flag.String("name", "tester", "author name to post with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var health transporthttp.HealthResponse
	if err := call(ctx, http.MethodGet, *base+"/api/health", nil, http.StatusOK, &health); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if !health.OK {
		return errors.New("health: ok=false")
	}

	var created transporthttp.MessageResponse
	req := transporthttp.CreateMessageRequest{Name: *name, Text: *text}
	if err := call(ctx, http.MethodPost, *base+"/api/messages", req, http.StatusCreated, &created); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Printf("Created: id=%d name=%s text=%q at=%s\n", created.ID, created.Name, created.Text, created.CreatedAt)

	var listed []transporthttp.MessageResponse
	if err := call(ctx, http.MethodGet, *base+"/api/messages", nil, http.StatusOK, &listed); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(listed) == 0 || listed[0].ID != created.ID {
		return errors.New("list: newest message is not the one just created")
	}
	fmt.Printf("Listed %d messages, newest id=%d\n", len(listed), listed[0].ID)
	return nil
}

func call(ctx context.Context, method, url string, body any, wantStatus int, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr transporthttp.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("status %d (want %d): %s", resp.StatusCode, wantStatus, apiErr.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/dambrete/internal/dambclient"
)

// wscheck probes a running server: REST health and room list, then a short
// WebSocket session printing every frame.
func main() {
	baseURL := os.Getenv("DAMBRETE_API_URL")
	wsURL := os.Getenv("DAMBRETE_WS_URL")
	userID := os.Getenv("X_USER_ID")
	if userID == "" {
		userID = "wscheck"
	}
	if baseURL == "" {
		log.Fatal("DAMBRETE_API_URL is required")
	}

	headers := func() map[string]string {
		return map[string]string{"X-User-Id": userID}
	}

	client := dambclient.NewClient(baseURL,
		dambclient.WithHeaderProvider(headers),
		dambclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if h, err := client.Health(ctx); err != nil {
		log.Printf("/healthz error: %v", err)
	} else {
		log.Printf("/healthz ok: online=%d", h.Online)
	}
	if rooms, err := client.Rooms(ctx); err != nil {
		log.Printf("/api/rooms error: %v", err)
	} else {
		log.Printf("/api/rooms ok: %d rooms", len(rooms))
	}

	if wsURL == "" {
		log.Println("DAMBRETE_WS_URL not set; skipping WS check")
		return
	}

	ws := dambclient.NewWebSocket(wsURL, 5)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state dambclient.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(f *dambclient.Frame) {
		fmt.Printf("WS %s %s\n", f.Type, f.Payload)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}
	if err := ws.Send(cctx, "lobby:hello", struct{}{}); err != nil {
		log.Printf("WS send error: %v", err)
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}

package serialmux

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/tagdata"
)

// Ingester consumes parsed tag reads. *tagdata.Engine implements it.
type Ingester interface {
	Ingest(tagdata.RawTagEvent) bool
}

// CurrentState holds the latest reader configuration values echoed by the
// bridge. It is package-level so admin routes and tests can inspect it;
// access it through State.
var (
	CurrentState map[string]any
	stateMu      sync.RWMutex
)

// State returns a copy of the latest reader configuration echo.
func State() map[string]any {
	stateMu.RLock()
	defer stateMu.RUnlock()
	out := make(map[string]any, len(CurrentState))
	for k, v := range CurrentState {
		out[k] = v
	}
	return out
}

func HandleTagRead(ing Ingester, payload string) error {
	ev, err := ParseTagReport(payload)
	if err != nil {
		return err
	}
	accepted := ing.Ingest(ev)
	monitoring.Debugf("tag read %s ch=%.2f phase=%.1f rssi=%.1f accepted=%v",
		ev.EPC, ev.Channel, ev.Phase, ev.RSSI, accepted)
	return nil
}

func HandleConfigResponse(payload string) error {
	var configValues map[string]any

	if err := json.Unmarshal([]byte(payload), &configValues); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	stateMu.Lock()
	if CurrentState == nil {
		CurrentState = make(map[string]any)
	}
	for k, v := range configValues {
		CurrentState[k] = v
	}
	stateMu.Unlock()

	log.Printf("Config Line: %+v", payload)
	return nil
}

// HandleEvent dispatches one bridge line.
func HandleEvent(ing Ingester, payload string) error {
	switch ClassifyPayload(payload) {
	case EventTypeTagRead:
		if err := HandleTagRead(ing, payload); err != nil {
			return fmt.Errorf("failed to handle tag read: %w", err)
		}
	case EventTypeConfig:
		if err := HandleConfigResponse(payload); err != nil {
			return fmt.Errorf("failed to handle config response: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPayload, payload)
	}
	return nil
}

func writeState(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(State()); err != nil {
		http.Error(w, "Failed to encode state", http.StatusInternalServerError)
	}
}

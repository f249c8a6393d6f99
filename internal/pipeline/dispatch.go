package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/models"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/store"
)

// DispatchTarget receives a fully built alert. Dispatch aborts on the
// first target that errors, so target order matters: put targets whose
// failure should block the others first.
type DispatchTarget interface {
	Send(ctx context.Context, alert *models.Alert) error
	Name() string
}

// DatabaseTarget persists the alert.
type DatabaseTarget struct{ Store *store.Store }

func (t DatabaseTarget) Send(ctx context.Context, alert *models.Alert) error {
	return t.Store.InsertAlert(ctx, alert)
}
func (t DatabaseTarget) Name() string { return "database" }

// EventBusTarget publishes an alert.created event. No subscribers is not
// an error — Publish is already non-blocking/best-effort.
type EventBusTarget struct{ Bus *eventbus.Bus }

func (t EventBusTarget) Send(ctx context.Context, alert *models.Alert) error {
	var deviceIP string
	if alert.DeviceIP != nil {
		deviceIP = *alert.DeviceIP
	}
	t.Bus.Publish(eventbus.Event{
		Type:      eventbus.EventAlertCreated,
		ID:        models.NewID(),
		Timestamp: models.Now(),
		Source:    "pipeline",
		Data: map[string]any{
			"alert_id":  alert.ID,
			"severity":  string(alert.Severity),
			"device_ip": deviceIP,
		},
	})
	return nil
}
func (t EventBusTarget) Name() string { return "event_bus" }

// LogTarget logs high/critical severity alerts.
type LogTarget struct{}

func (t LogTarget) Send(ctx context.Context, alert *models.Alert) error {
	if alert.Severity.Score() >= models.SeverityHigh.Score() {
		log.Printf("[pipeline] high-severity alert dispatched: severity=%s title=%q fingerprint=%s",
			alert.Severity, alert.Title, alert.Fingerprint)
	}
	return nil
}
func (t LogTarget) Name() string { return "log" }

// WebhookTarget POSTs the alert as JSON to a configured URL. Only
// high/critical severity alerts are sent, matching the alerts dispatch
// config's intent to avoid flooding an external endpoint with noise.
type WebhookTarget struct {
	URL    string
	Client *http.Client
}

func (t WebhookTarget) Send(ctx context.Context, alert *models.Alert) error {
	if alert.Severity.Score() < models.SeverityHigh.Score() {
		return nil
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return necerr.New(necerr.KindDispatch, "webhook responded with status "+resp.Status)
	}
	return nil
}
func (t WebhookTarget) Name() string { return "webhook" }

// Dispatch builds the final Alert from a normalized alert plus the
// scoring/correlation results, then sends it to every target in order.
func Dispatch(ctx context.Context, normalized *models.NormalizedAlert, finalSeverity models.Severity,
	correlationID *string, targets []DispatchTarget) (*models.Alert, error) {

	alert := models.NewAlert(normalized, finalSeverity, correlationID)

	for _, target := range targets {
		if err := target.Send(ctx, alert); err != nil {
			return nil, necerr.Wrap(necerr.KindDispatch, "dispatch target "+target.Name(), err)
		}
	}

	return alert, nil
}

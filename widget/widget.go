package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/cadenceboard/internal/poller"
	"github.com/jpalmerr/cadenceboard/telemetry"
)

const (
	defaultInterval = time.Second

	dataPath  = "/api/data"
	resetPath = "/api/reset"
)

// ErrResetRejected is returned by [Widget.ResetSession] when the server
// answered with a non-success status.
var ErrResetRejected = errors.New("reset rejected")

// Widget polls a CadenceBoard server and renders each snapshot into a
// [Display].
//
// The typical lifecycle is:
//
//	w, err := widget.New("http://raspberrypi.local:5000", display, dialog)
//	if err != nil {
//	    return err
//	}
//	w.Start(ctx)
//	defer w.Stop()
type Widget struct {
	dataURL  string
	resetURL string
	display  Display
	dialog   Dialog

	client    *poller.Client
	scheduler *poller.Scheduler
	timeout   time.Duration
	location  *time.Location
	logger    *slog.Logger
}

// New creates a [Widget] for the server at baseURL.
//
// baseURL must be an absolute http or https URL; any path is kept as a
// prefix for the API routes. Returns an error if baseURL is invalid, if
// display or dialog is nil, or if any option is invalid.
func New(baseURL string, display Display, dialog Dialog, opts ...Option) (*Widget, error) {
	if display == nil {
		return nil, errors.New("display cannot be nil")
	}
	if dialog == nil {
		return nil, errors.New("dialog cannot be nil")
	}

	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	cfg := &widgetConfig{
		interval: defaultInterval,
		location: time.Local,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	client := poller.NewClient()
	if cfg.httpClient != nil {
		client = poller.NewClientWith(cfg.httpClient)
	}

	w := &Widget{
		dataURL:  base + dataPath,
		resetURL: base + resetPath,
		display:  display,
		dialog:   dialog,
		client:   client,
		timeout:  cfg.timeout,
		location: cfg.location,
		logger:   logger,
	}
	w.scheduler = poller.NewScheduler(cfg.interval, func(ctx context.Context) {
		_ = w.UpdateData(ctx)
	}, logger)

	return w, nil
}

func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("base url must have a host")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Start polls once immediately and then once per interval until ctx is
// cancelled or [Widget.Stop] is called.
//
// Each tick is an independent round trip: ticks are not queued, coalesced
// or cancelled when a previous one is still in flight. Start is
// non-blocking and idempotent.
func (w *Widget) Start(ctx context.Context) {
	w.scheduler.Start(ctx)
}

// Stop ends polling and waits for in-flight polls to finish. In-flight
// requests are cancelled through their context. Stop is idempotent.
func (w *Widget) Stop() {
	w.scheduler.Stop()
	w.client.Close()
}

// UpdateData performs one fetch-and-render round trip.
//
// On success the six display fields and the gauge property are written and
// the status element shows [StatusOnline]. On any failure (transport error,
// non-2xx status, or a body that is not a JSON object) only the status
// element is written, with [StatusError]; the error is returned for callers
// that care and is otherwise only logged. A poll cut short by cancelling
// ctx leaves the display untouched.
func (w *Widget) UpdateData(ctx context.Context) error {
	resp := w.client.Do(ctx, poller.Request{
		Method:  http.MethodGet,
		URL:     w.dataURL,
		Timeout: w.timeout,
	})

	obj, err := decodeSnapshot(resp)
	if err != nil && ctx.Err() != nil {
		// stopped, not failed
		return ctx.Err()
	}
	if err != nil {
		w.display.SetText(ElementStatus, StatusError)
		w.logger.Debug("poll failed", "url", w.dataURL, "error", err.Error())
		return err
	}

	w.render(obj)
	w.logger.Debug("poll completed", "url", w.dataURL, "latency_ms", resp.Latency.Milliseconds())
	return nil
}

func decodeSnapshot(resp poller.Response) (map[string]any, error) {
	if resp.Error != nil {
		return nil, resp.Error
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var obj map[string]any
	if err := json.Unmarshal(resp.Body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if obj == nil {
		return nil, errors.New("payload is null")
	}
	return obj, nil
}

func (w *Widget) render(obj map[string]any) {
	w.display.SetText(ElementSpeed, displayText(lookup(obj, "speed")))
	w.display.SetText(ElementDistance, displayText(lookup(obj, "distance")))
	w.display.SetText(ElementTime, displayText(lookup(obj, "elapsed_time")))
	w.display.SetText(ElementCalories, displayText(lookup(obj, "calories")))
	w.display.SetText(ElementLastUpdate, lastUpdateText(lookup(obj, "last_update"), w.location))
	w.display.SetText(ElementStatus, StatusOnline)

	cadence := lookup(obj, "cadence")
	w.display.SetText(ElementCadence, cadenceText(cadence))
	w.display.SetProperty(PropertyCadenceRate, formatNumber(gaugeValue(cadence)))
}

// ResetSession asks the rider to confirm, then asks the server to reset the
// riding session.
//
// Declining sends nothing and returns nil. Otherwise exactly one alert is
// shown: on success the alert is followed by an immediate extra
// [Widget.UpdateData] outside the timer; a non-success answer alerts with
// the server's message and returns an error wrapping [ErrResetRejected];
// a transport or decode failure is logged and alerts a generic failure.
func (w *Widget) ResetSession(ctx context.Context) error {
	if !w.dialog.Confirm(ConfirmResetMessage) {
		return nil
	}

	resp := w.client.Do(ctx, poller.Request{
		Method:  http.MethodPost,
		URL:     w.resetURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Timeout: w.timeout,
	})

	status, message, err := decodeResetResult(resp)
	if err != nil {
		w.logger.Error("reset request failed", "url", w.resetURL, "error", err.Error())
		w.dialog.Alert(ResetFailedMessage)
		return err
	}

	if status != telemetry.ResetStatusSuccess {
		w.dialog.Alert(ResetFailedMessage + ": " + message)
		return fmt.Errorf("%w: %s", ErrResetRejected, message)
	}

	w.dialog.Alert(ResetSuccessMessage)
	_ = w.UpdateData(ctx)
	return nil
}

// decodeResetResult extracts status and message from a reset response.
// The body is decoded whatever the HTTP status: the server reports
// failures as JSON with a 500. A missing status or message decodes as
// "undefined".
func decodeResetResult(resp poller.Response) (status, message string, err error) {
	if resp.Error != nil {
		return "", "", resp.Error
	}

	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", "", fmt.Errorf("failed to decode reset response: %w", err)
	}
	if body == nil {
		return "", "", errors.New("reset response is null")
	}

	status, message = "undefined", "undefined"
	obj, ok := body.(map[string]any)
	if !ok {
		return status, message, nil
	}
	if s, ok := obj["status"].(string); ok {
		status = s
	}
	if m, ok := obj["message"]; ok {
		message = stringify(m)
	}
	return status, message, nil
}

package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// payloadFunc renders an alert for one webhook type.
type payloadFunc func(a *Alert) ([]byte, error)

var payloads = map[string]payloadFunc{
	"slack": slackMessage,
	"teams": teamsCard,
	"http":  alertJSON,
}

// notify posts a to every configured webhook. Failures are logged only.
func (e *Engine) notify(a *Alert) {
	e.mu.Lock()
	hooks := e.webhooks
	e.mu.Unlock()

	for _, wh := range hooks {
		render, ok := payloads[wh.Type]
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}
		url := wh.URL()
		if url == "" {
			continue
		}
		body, err := render(a)
		if err == nil {
			err = e.send(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"valve", a.ValveDrawing,
				"err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// headline is the one-line summary shared by chat payloads.
func headline(a *Alert) string {
	if a.State == "resolved" {
		return fmt.Sprintf("[RESOLVED] valve %s back within limits: %s", a.ValveDrawing, a.RuleName)
	}
	return fmt.Sprintf("%s valve %s leak-off: %s (value %.4g)", levelTag(a.Severity), a.ValveDrawing, a.RuleName, a.Value)
}

func slackMessage(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]string{"text": headline(a)})
}

func teamsCard(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": levelColor(a.Severity),
		"summary":    a.RuleName,
		"title":      headline(a),
		"text":       a.Message,
		"sections": []map[string]any{{
			"facts": []map[string]string{
				{"name": "Valve", "value": a.ValveDrawing},
				{"name": "Rule", "value": a.RuleName},
				{"name": "Value", "value": fmt.Sprintf("%.4g", a.Value)},
				{"name": "Calculation", "value": a.CalculationID},
				{"name": "State", "value": a.State},
			},
		}},
	})
}

func alertJSON(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]any{"alert": a})
}

func (e *Engine) send(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook answered HTTP %d", resp.StatusCode)
	}
	return nil
}

func levelTag(severity string) string {
	switch severity {
	case "critical", "warning":
		return "[" + strings.ToUpper(severity) + "]"
	}
	return "[INFO]"
}

// levelColor is the Teams card accent.
func levelColor(severity string) string {
	switch severity {
	case "critical":
		return "D13438"
	case "warning":
		return "FFB900"
	}
	return "0078D4"
}

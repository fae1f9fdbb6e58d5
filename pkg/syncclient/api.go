package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// HTTPAgendaAPI talks to the server's agenda CRUD surface, presenting the
// Zoom context token on every call. It implements both AgendaAPI (the
// save path) and StatusFlusher (the debounced advance/rewind path).
type HTTPAgendaAPI struct {
	baseURL      string
	meetingID    string
	contextToken string
	httpClient   *http.Client
}

func NewHTTPAgendaAPI(baseURL, meetingID, contextToken string) *HTTPAgendaAPI {
	return &HTTPAgendaAPI{
		baseURL:      baseURL,
		meetingID:    meetingID,
		contextToken: contextToken,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *HTTPAgendaAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Zoom-App-Context", a.contextToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, detail)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (a *HTTPAgendaAPI) agendaPath() string {
	return "/meetings/" + a.meetingID + "/agenda"
}

func (a *HTTPAgendaAPI) ListItems(ctx context.Context) ([]*models.AgendaItem, error) {
	var items []*models.AgendaItem
	if err := a.do(ctx, http.MethodGet, a.agendaPath(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *HTTPAgendaAPI) CreateItem(ctx context.Context, text string, timerValue int) (*models.AgendaItem, error) {
	item := &models.AgendaItem{}
	req := models.CreateAgendaItemRequest{Text: text, TimerValue: timerValue}
	if err := a.do(ctx, http.MethodPost, a.agendaPath(), req, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (a *HTTPAgendaAPI) UpdateItem(ctx context.Context, id, text string, timerValue int) error {
	req := models.BatchUpdateRequest{Items: []models.UpdateAgendaItemRequest{
		{ID: id, Text: text, TimerValue: timerValue},
	}}

	var results []struct {
		ID    string `json:"id"`
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := a.do(ctx, http.MethodPut, a.agendaPath(), req, &results); err != nil {
		return err
	}
	for _, res := range results {
		if !res.OK {
			if res.Error == "not_found" {
				return ErrNotFound
			}
			return fmt.Errorf("update %s failed: %s", res.ID, res.Error)
		}
	}
	return nil
}

func (a *HTTPAgendaAPI) DeleteItem(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, a.agendaPath()+"/"+id, nil, nil)
}

type statusRequest struct {
	IDs       []string `json:"ids"`
	Processed bool     `json:"processed"`
}

func (a *HTTPAgendaAPI) MarkProcessed(meetingID string, ids []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.do(ctx, http.MethodPut, "/meetings/"+meetingID+"/agenda/status", statusRequest{IDs: ids, Processed: true}, nil)
}

func (a *HTTPAgendaAPI) MarkUnprocessed(meetingID string, ids []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.do(ctx, http.MethodPut, "/meetings/"+meetingID+"/agenda/status", statusRequest{IDs: ids, Processed: false}, nil)
}

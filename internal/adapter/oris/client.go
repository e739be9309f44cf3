package oris

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/event-map-index/internal/domain"
)

const dateLayout = "2006-01-02"

// User is the subset of an ORIS user record the source needs.
type User struct {
	ID        int
	RegNo     string
	FirstName string
	LastName  string
}

// EventEntry is one registration of a user for an event.
type EventEntry struct {
	ID      int
	EventID int
}

// Client talks to the ORIS JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an ORIS API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetUser looks up a user by registration number (e.g. "ABC1234").
// It returns nil without an error when no such user exists.
func (c *Client) GetUser(ctx context.Context, regNum string) (*User, error) {
	data, err := c.call(ctx, "getUser", url.Values{"rgnum": {regNum}})
	if err != nil {
		return nil, err
	}
	if isEmpty(data) {
		return nil, nil
	}

	var dto userDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", regNum, err)
	}
	if dto.ID == 0 {
		return nil, nil
	}
	return &User{ID: int(dto.ID), RegNo: dto.RegNo, FirstName: dto.FirstName, LastName: dto.LastName}, nil
}

// GetUserEventEntries returns the user's entries in the order ORIS lists them.
func (c *Client) GetUserEventEntries(ctx context.Context, userID int) ([]EventEntry, error) {
	data, err := c.call(ctx, "getUserEventEntries", url.Values{"userid": {strconv.Itoa(userID)}})
	if err != nil {
		return nil, err
	}
	if isEmpty(data) {
		return nil, nil
	}

	dtos, err := decodeOrdered[entryDTO](data)
	if err != nil {
		return nil, fmt.Errorf("decode entries of user %d: %w", userID, err)
	}
	entries := make([]EventEntry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, EventEntry{ID: int(d.ID), EventID: int(d.EventID)})
	}
	return entries, nil
}

// GetEvent fetches one event.
func (c *Client) GetEvent(ctx context.Context, eventID int) (domain.Event, error) {
	data, err := c.call(ctx, "getEvent", url.Values{"id": {strconv.Itoa(eventID)}})
	if err != nil {
		return domain.Event{}, err
	}
	if isEmpty(data) {
		return domain.Event{}, fmt.Errorf("event %d: not found", eventID)
	}

	var dto eventDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %d: %w", eventID, err)
	}
	return dto.toDomain(c.logger), nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	params.Set("format", "json")
	params.Set("method", method)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oris %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oris API error: %s: status %d: %s", method, resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if env.Status != "OK" {
		return nil, fmt.Errorf("oris API error: %s: status %q", method, env.Status)
	}
	return env.Data, nil
}

// isEmpty reports whether a Data payload carries nothing. ORIS answers
// lookups without a match with an empty array.
func isEmpty(data json.RawMessage) bool {
	s := string(bytes.TrimSpace(data))
	return s == "" || s == "null" || s == "[]" || s == "{}"
}

// decodeOrdered decodes a collection that ORIS sends either as an array or as
// an object keyed by record name, preserving document order in both cases.
func decodeOrdered[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected object or array")
	}

	var out []T
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, err
		}
		var v T
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ORIS API response types. Numeric fields arrive as strings.

type envelope struct {
	Method string          `json:"Method"`
	Status string          `json:"Status"`
	Data   json.RawMessage `json:"Data"`
}

type userDTO struct {
	ID        flexInt `json:"ID"`
	RegNo     string  `json:"RegNo"`
	FirstName string  `json:"FirstName"`
	LastName  string  `json:"LastName"`
}

type entryDTO struct {
	ID      flexInt `json:"ID"`
	EventID flexInt `json:"EventID"`
}

type eventDTO struct {
	ID         flexInt        `json:"ID"`
	Name       string         `json:"Name"`
	Date       string         `json:"Date"`
	Place      string         `json:"Place"`
	Map        string         `json:"Map"`
	GPSLat     string         `json:"GPSLat"`
	GPSLon     string         `json:"GPSLon"`
	ParentID   flexInt        `json:"ParentID"`
	Discipline *disciplineDTO `json:"Discipline"`
}

type disciplineDTO struct {
	ID        flexInt `json:"ID"`
	ShortName string  `json:"ShortName"`
	NameCZ    string  `json:"NameCZ"`
}

func (d eventDTO) toDomain(logger *slog.Logger) domain.Event {
	e := domain.Event{
		ID:       int(d.ID),
		ParentID: int(d.ParentID),
		Name:     d.Name,
		Place:    d.Place,
		Map:      d.Map,
		Lat:      d.GPSLat,
		Lon:      d.GPSLon,
	}
	if d.Discipline != nil {
		e.Discipline = d.Discipline.ShortName
	}
	if d.Date != "" {
		date, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			logger.Warn("unparsable event date", "event_id", e.ID, "date", d.Date)
		} else {
			e.Date = date
		}
	}
	return e
}

// flexInt accepts a JSON number, a numeric string, an empty string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s", b)
	}
	*f = flexInt(n)
	return nil
}

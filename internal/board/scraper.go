package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"haulbot/pkg/logx"
)

// CityList supplies the tracked city names used to normalize stop display.
type CityList interface {
	All() []string
}

type ClientConfig struct {
	APIURL  string
	Timeout time.Duration // 0 means 30s
}

// Client scrapes the load-board webhook API.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	cities CityList
	log    logx.Logger
}

func NewClient(cfg ClientConfig, cities CityList, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("board api url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		cities: cities,
		log:    log,
	}, nil
}

// loadID tolerates the board emitting load ids as strings or numbers.
// Any other shape decodes as empty so only that job is dropped, never the
// whole batch.
type loadID string

func (id *loadID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = loadID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = loadID(n.String())
		return nil
	}
	*id = ""
	return nil
}

type apiStop struct {
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	StopType  string `json:"stop_type"`
	ApptStart string `json:"appointment_start_time"`
	ApptEnd   string `json:"appointment_end_time"`
}

type apiJob struct {
	LoadID     loadID  `json:"load_id"`
	TotalMiles float64 `json:"total_miles"`

	PickupStart string `json:"pickup_start_datetime"`
	PickupEnd   string `json:"pickup_end_datetime"`
	PickupAt    string `json:"pick_up_datetime"`

	DeliveryStart string `json:"delivery_start_datetime"`
	DeliveryEnd   string `json:"delivery_end_datetime"`
	DeliveryAt    string `json:"delivery_datetime"`

	Stops []apiStop `json:"stops"`
}

// FetchCandidates posts to the webhook and normalizes the response into
// entries, newest-first as delivered by the board. Jobs without a load id or
// without any meaningful data are dropped here.
func (c *Client) FetchCandidates(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board fetch: unexpected status %d", resp.StatusCode)
	}

	var jobs []apiJob
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("board fetch: decode: %w", err)
	}

	tracked := c.trackedCities()

	entries := make([]Entry, 0, len(jobs))
	for _, job := range jobs {
		id := strings.TrimSpace(string(job.LoadID))
		if id == "" || !hasMeaningfulData(job) {
			continue
		}
		entries = append(entries, Entry{
			LoadID:       id,
			Distance:     humanize.CommafWithDigits(job.TotalMiles, 1) + " miles",
			PickupTime:   extractPickupTime(job),
			DeliveryTime: extractDeliveryTime(job),
			Stops:        formatStops(job.Stops, tracked),
			StateCode:    extractStateCode(job.Stops),
			RouteURL:     routeLink(job.Stops),
		})
	}

	c.log.Info("fetched board entries", logx.Int("count", len(entries)), logx.Int("raw", len(jobs)))
	return entries, nil
}

func (c *Client) trackedCities() []string {
	if c.cities == nil {
		return nil
	}
	return c.cities.All()
}

// hasMeaningfulData rejects placeholder jobs the board sometimes emits:
// no stops, or stops without any miles/time/appointment signal.
func hasMeaningfulData(job apiJob) bool {
	if len(job.Stops) == 0 {
		return false
	}
	valid := false
	hasAppt := false
	for _, s := range job.Stops {
		if s.City != "" && s.State != "" {
			valid = true
		}
		if s.ApptStart != "" {
			hasAppt = true
		}
	}
	if !valid {
		return false
	}
	hasPickup := job.PickupStart != "" || job.PickupEnd != "" || job.PickupAt != ""
	hasDelivery := job.DeliveryStart != "" || job.DeliveryEnd != "" || job.DeliveryAt != ""
	return job.TotalMiles > 0 || hasPickup || hasDelivery || hasAppt
}

func extractPickupTime(job apiJob) string {
	for _, v := range []string{job.PickupStart, job.PickupEnd, job.PickupAt} {
		if v != "" {
			return formatTime(v)
		}
	}
	for _, s := range job.Stops {
		if s.StopType != "Pickup" {
			continue
		}
		if s.ApptStart != "" {
			return formatTime(s.ApptStart)
		}
		if s.ApptEnd != "" {
			return formatTime(s.ApptEnd)
		}
	}
	return "Not specified"
}

func extractDeliveryTime(job apiJob) string {
	for _, v := range []string{job.DeliveryStart, job.DeliveryEnd, job.DeliveryAt} {
		if v != "" {
			return formatTime(v)
		}
	}
	for i := len(job.Stops) - 1; i >= 0; i-- {
		s := job.Stops[i]
		if s.StopType != "Delivery" {
			continue
		}
		if s.ApptStart != "" {
			return formatTime(s.ApptStart)
		}
		if s.ApptEnd != "" {
			return formatTime(s.ApptEnd)
		}
	}
	return "Not specified"
}

// formatStops renders each stop as "CITY, STATE ZIP". When a stop's city
// matches a tracked city name, the tracked spelling is used.
func formatStops(stops []apiStop, tracked []string) []string {
	if len(stops) == 0 {
		return []string{"No stops information"}
	}
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		city := strings.ToUpper(strings.TrimSpace(s.City))
		state := strings.ToUpper(strings.TrimSpace(s.State))
		if city == "" || state == "" {
			continue
		}
		for _, name := range tracked {
			if strings.Contains(city, name) || strings.Contains(city+" "+state, name) {
				city = name
				break
			}
		}
		loc := city + ", " + state
		if z := strings.TrimSpace(s.Zipcode); z != "" {
			loc += " " + z
		}
		out = append(out, loc)
	}
	if len(out) == 0 {
		return []string{"No valid stops"}
	}
	return out
}

func extractStateCode(stops []apiStop) string {
	if len(stops) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(stops[0].State))
}

// routeLink builds a Google Maps directions URL across the stops. Fewer than
// two locatable stops means no link.
func routeLink(stops []apiStop) string {
	locs := make([]string, 0, len(stops))
	for _, s := range stops {
		if s.City == "" || s.State == "" {
			continue
		}
		loc := s.City + ", " + s.State
		if s.Zipcode != "" {
			loc += " " + s.Zipcode
		}
		locs = append(locs, url.QueryEscape(loc))
	}
	if len(locs) < 2 {
		return ""
	}
	return "https://www.google.com/maps/dir/" + strings.Join(locs, "/")
}

// Package prayertimes fetches daily prayer schedules from the AlAdhan API.
package prayertimes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// calculationMethod 2 is ISNA, matching the mini-app.
const calculationMethod = "2"

// Timings holds one day's prayer times as "HH:MM" strings.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings Timings `json:"timings"`
	} `json:"data"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// ByCoordinates returns today's timings for the given position.
func (c *Client) ByCoordinates(latitude, longitude float64) (*Timings, error) {
	endpoint := fmt.Sprintf("%s/timings?latitude=%f&longitude=%f&method=%s",
		c.baseURL, latitude, longitude, calculationMethod)

	timings, err := c.fetch(endpoint)
	if err != nil {
		return nil, fmt.Errorf("get timings (lat: %f, lng: %f): %w", latitude, longitude, err)
	}
	return timings, nil
}

// ByCity returns today's timings for a named city.
func (c *Client) ByCity(city, country string) (*Timings, error) {
	endpoint := fmt.Sprintf("%s/timingsByCity?city=%s&country=%s&method=%s",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(country), calculationMethod)

	timings, err := c.fetch(endpoint)
	if err != nil {
		return nil, fmt.Errorf("get timings (city: %s): %w", city, err)
	}
	return timings, nil
}

func (c *Client) fetch(endpoint string) (*Timings, error) {
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var response timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if response.Code != http.StatusOK {
		return nil, fmt.Errorf("api error code %d", response.Code)
	}

	return &response.Data.Timings, nil
}

// ReminderTime computes the wall-clock hour and minute N minutes before a
// "HH:MM" prayer time.
func ReminderTime(prayerTime string, minutesBefore int) (hour, minute int, err error) {
	t, err := time.Parse("15:04", prayerTime)
	if err != nil {
		return 0, 0, fmt.Errorf("parse prayer time %q: %w", prayerTime, err)
	}
	r := t.Add(-time.Duration(minutesBefore) * time.Minute)
	return r.Hour(), r.Minute(), nil
}

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/store"
)

// ForecastDays is how many daily readings a fetch returns.
const ForecastDays = 5

// slotsPerDay is the number of 3-hour forecast slots in a day.
const slotsPerDay = 8

// Provider fetches current conditions and a short forecast.
type Provider interface {
	Fetch(ctx context.Context, location string, units store.Units, apiKey string) (store.WeatherData, error)
}

// APIError is a non-200 answer from the weather service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather api: status %d", e.Status)
	}
	return fmt.Sprintf("weather api: status %d: %s", e.Status, e.Message)
}

// Client talks to the OpenWeatherMap 2.5 API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg config.WeatherConfig) *Client {
	perMinute := max(cfg.RatePerMinute, 1)
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		// One fetch is two requests, so allow a pair in a burst.
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 2),
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Icon string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// Fetch gets current conditions and, best effort, the forecast. A failed
// forecast leaves Forecast empty rather than failing the fetch.
func (c *Client) Fetch(ctx context.Context, location string, units store.Units, apiKey string) (store.WeatherData, error) {
	var cur currentResponse
	if err := c.get(ctx, "weather", location, units, apiKey, &cur); err != nil {
		return store.WeatherData{}, fmt.Errorf("fetch current weather: %w", err)
	}

	data := store.WeatherData{
		Temp:      math.Round(cur.Main.Temp),
		Humidity:  cur.Main.Humidity,
		WindSpeed: math.Round(cur.Wind.Speed),
		City:      cur.Name,
	}
	if len(cur.Weather) > 0 {
		data.Description = cur.Weather[0].Description
		data.Icon = cur.Weather[0].Icon
	}

	var fc forecastResponse
	if err := c.get(ctx, "forecast", location, units, apiKey, &fc); err == nil {
		data.Forecast = dailyForecast(fc)
	}
	return data, nil
}

// dailyForecast keeps one slot per day, up to ForecastDays.
func dailyForecast(fc forecastResponse) []store.ForecastDay {
	var days []store.ForecastDay
	for i := 0; i < len(fc.List) && len(days) < ForecastDays; i += slotsPerDay {
		slot := fc.List[i]
		day := store.ForecastDay{
			Date: time.Unix(slot.Dt, 0).Format("Mon"),
			Temp: math.Round(slot.Main.Temp),
		}
		if len(slot.Weather) > 0 {
			day.Icon = slot.Weather[0].Icon
		}
		days = append(days, day)
	}
	return days
}

func (c *Client) get(ctx context.Context, endpoint, location string, units store.Units, apiKey string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("units", string(units))
	q.Set("appid", apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

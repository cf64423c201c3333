package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"github.com/yegors/infotavla/pkg/logger"
)

// Config holds the upstream backend settings
type Config struct {
	BaseURL        string        // e.g. http://localhost:8080
	RequestTimeout time.Duration // per-call deadline, 0 leaves it to the caller's context

	// Consecutive transport failures that open a source's breaker. 0 disables it.
	BreakerFailureThreshold uint32
	// How long an open breaker fails fast before letting one probe through
	BreakerOpenTimeout time.Duration
}

// Client fetches and decodes the three upstream payloads
type Client struct {
	config     Config
	httpClient *http.Client
	breakers   map[Name]*gobreaker.CircuitBreaker
	validate   *validator.Validate
	logger     *logger.Logger
}

// NewClient creates a new source client
func NewClient(config Config, log *logger.Logger) *Client {
	c := &Client{
		config:     config,
		httpClient: &http.Client{},
		breakers:   make(map[Name]*gobreaker.CircuitBreaker),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     log.Named("source-client"),
	}
	c.config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.BreakerFailureThreshold > 0 {
		for _, name := range Names() {
			c.breakers[name] = c.newBreaker(name)
		}
	}
	return c
}

func (c *Client) newBreaker(name Name) *gobreaker.CircuitBreaker {
	threshold := c.config.BreakerFailureThreshold
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(name),
		MaxRequests: 1,
		Timeout:     c.config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// a cancelled tick says nothing about the upstream
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Source circuit breaker changed state",
				logger.String("source", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
}

// FetchClock fetches the /clock payload
func (c *Client) FetchClock(ctx context.Context) (*ClockSnapshot, error) {
	var snap ClockSnapshot
	if err := c.fetch(ctx, Clock, &snap); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&snap); err != nil {
		return nil, decodeError(Clock, err)
	}
	return &snap, nil
}

// FetchWeather fetches the /weather payload
func (c *Client) FetchWeather(ctx context.Context) (*WeatherResponse, error) {
	var resp WeatherResponse
	if err := c.fetch(ctx, Weather, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, decodeError(Weather, err)
	}
	return &resp, nil
}

// FetchDepartures fetches the /departures payload
func (c *Client) FetchDepartures(ctx context.Context) ([]DepartureGroup, error) {
	var groups []DepartureGroup
	if err := c.fetch(ctx, Departures, &groups); err != nil {
		return nil, err
	}
	if groups == nil {
		return nil, decodeError(Departures, errors.New("expected an array of departure groups, got null"))
	}
	return groups, nil
}

// BreakerState reports the breaker state of a source, "disabled" when breakers are off
func (c *Client) BreakerState(name Name) string {
	cb, ok := c.breakers[name]
	if !ok {
		return "disabled"
	}
	return cb.State().String()
}

// fetch issues GET <base>/<name> and decodes the JSON body into target
func (c *Client) fetch(ctx context.Context, name Name, target any) error {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, name)
	start := time.Now()

	resp, err := c.get(ctx, name, url)
	if err != nil {
		c.logger.Debug("Source request failed",
			logger.String("source", string(name)),
			logger.String("url", url),
			logger.Error(err))
		return transportError(name, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return decodeError(name, fmt.Errorf("error decoding %s payload: %w", name, err))
	}

	c.logger.Debug("Source fetched",
		logger.String("source", string(name)),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// get performs the request through the source's breaker, if any.
// A returned response always has a 2xx status.
func (c *Client) get(ctx context.Context, name Name, url string) (*http.Response, error) {
	do := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error making request to %s: %w", url, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return resp, nil
	}

	cb, ok := c.breakers[name]
	if !ok {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		return resp.(*http.Response), nil
	}

	result, err := cb.Execute(do)
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

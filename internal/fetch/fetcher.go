package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ibge-panorama/internal/assert"
	"ibge-panorama/internal/components/chrono"
	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_do      = "fetcher.do"
	report_fetcher_attempt = "fetcher.attempt"
)

var tracer = otel.Tracer("ibge-panorama/fetch")
var meter = otel.Meter("ibge-panorama/fetch")
var attemptCounter, _ = meter.Int64Counter("fetch.attempts")
var retryCounter, _ = meter.Int64Counter("fetch.retries")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// Timeout bounds a single attempt, it defaults to 60 seconds.
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond limits the request rate of the client, 0 means no limit.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport so requests look like a browser's.
	CloudflareBypass bool
	Policy           Policy
	// Dump receives every request/response pair, it can be nil.
	Dump restyutil.InstrumentOutput
}

// Fetcher performs GET requests with the retry policy it was built with.
type Fetcher struct {
	Http   *resty.Client
	policy Policy
	time   chrono.API
	tel    telemetry.API
}

func New(opts Options, clock chrono.API, tel telemetry.API) *Fetcher {
	assert.NotNil(clock)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("fetch", tel)

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Policy.isZero() {
		opts.Policy = DefaultPolicy()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", opts.UserAgent)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		// max burst of 1 keeps the requests evenly spaced
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel, tracer)
	restyutil.DumpExchanges(client, opts.Dump)

	return &Fetcher{
		Http:   client,
		policy: opts.Policy,
		time:   clock,
		tel:    tel,
	}
}

// Policy returns the policy used by Get and GetJSON.
func (f *Fetcher) Policy() Policy {
	return f.policy
}

// Get fetches the raw body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return f.Do(ctx, f.policy, url, nil)
}

// GetJSON fetches url and decodes it into out. A body that does not decode
// is retried like a transport failure.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) error {
	_, err := f.Do(ctx, f.policy, url, func(body []byte) error {
		return json.Unmarshal(body, out)
	})
	return err
}

// Do fetches url under policy. accept, when not nil, is run on every 2xx
// body and a failure from it counts as a failed attempt.
func (f *Fetcher) Do(ctx context.Context, policy Policy, url string, accept func(body []byte) error) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetcher.Do")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	attempts := 1 + max(policy.Retries, 0)

	var lastErr error
	var lastStatus int
	attempt := 1
	for ; ; attempt++ {
		attemptCounter.Add(ctx, 1)
		f.tel.ReportDebug("attempt", url, attempt, attempts)

		body, status, err := f.attempt(ctx, url, accept)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return body, nil
		}
		lastErr, lastStatus = err, status

		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, ctx.Err()
		}

		var nonTransient *NonTransientError
		if errors.As(err, &nonTransient) {
			span.SetStatus(codes.Error, err.Error())
			f.tel.ReportBroken(report_fetcher_do, err, url)
			return nil, err
		}

		f.tel.ReportWarning(report_fetcher_attempt, err, url, attempt, attempts)
		if attempt >= attempts || !policy.retryable(err) {
			break
		}

		delay := policy.Delay(attempt)
		retryCounter.Add(ctx, 1)
		f.tel.ReportInfo("next attempt scheduled", url, fmt.Sprintf("in %g seconds", delay.Seconds()))

		err = f.time.Sleep(ctx, delay)
		if err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}
	}

	err := &TransientError{
		URL:      url,
		Attempts: attempt,
		Status:   lastStatus,
		Err:      lastErr,
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "attempts exhausted")
	f.tel.ReportBroken(report_fetcher_do, err, url)
	return nil, err
}

func (f *Fetcher) attempt(ctx context.Context, url string, accept func([]byte) error) ([]byte, int, error) {
	res, err := f.Http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, 0, err
	}

	status := res.StatusCode()
	if !res.IsSuccess() {
		if transientStatus(status) {
			return nil, status, statusError{status: status}
		}
		return nil, status, &NonTransientError{URL: url, Status: status}
	}

	body := res.Body()
	if accept != nil {
		err = accept(body)
		if err != nil {
			return nil, status, DecodeError{Err: err}
		}
	}
	return body, status, nil
}

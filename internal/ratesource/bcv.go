// Package ratesource reads the official VEF exchange rates published by the
// Banco Central de Venezuela.
package ratesource

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSectionNotFound = errors.New("official rate section not found")
	ErrMissingDate     = errors.New("effective date not found")
	ErrMissingUSD      = errors.New("USD rate not found")
)

// Rates are VEF per unit of each currency, effective from Date.
type Rates struct {
	Date  time.Time
	Rates map[string]decimal.Decimal
}

func (r Rates) USD() (decimal.Decimal, bool) {
	rate, ok := r.Rates["USD"]

	return rate, ok
}

var currencyIDs = map[string]string{
	"USD": "dolar",
	"EUR": "euro",
}

// Source binds Fetch to one page.
type Source struct {
	Client *http.Client
	URL    string
}

func NewSource(url string, timeout time.Duration) *Source {
	return &Source{
		Client: &http.Client{Timeout: timeout},
		URL:    url,
	}
}

func (s *Source) Fetch(ctx context.Context) (Rates, error) {
	return Fetch(ctx, s.Client, s.URL)
}

// Fetch downloads and parses the rate page. The BCV site often serves an
// incomplete certificate chain, so a certificate failure is retried once
// without verification.
func Fetch(ctx context.Context, client *http.Client, url string) (Rates, error) {
	body, err := get(ctx, client, url)
	if err != nil && isCertificateError(err) {
		zap.L().Warn("rate source certificate verification failed, retrying without verification", zap.Error(err))
		body, err = get(ctx, insecure(client), url)
	}
	if err != nil {
		return Rates{}, err
	}
	defer body.Close()

	return Parse(body)
}

// Parse extracts the effective date and rates from the page body.
func Parse(r io.Reader) (Rates, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Rates{}, fmt.Errorf("goquery.NewDocumentFromReader() -> %w", err)
	}

	section := doc.Find("div.view-tipo-de-cambio-oficial-del-bcv").First()
	if section.Length() == 0 {
		return Rates{}, ErrSectionNotFound
	}

	content, ok := section.Find("span.date-display-single").First().Attr("content")
	if !ok || content == "" {
		return Rates{}, ErrMissingDate
	}
	date, err := time.Parse(time.DateOnly, strings.SplitN(content, "T", 2)[0])
	if err != nil {
		return Rates{}, fmt.Errorf("time.Parse() -> %w", err)
	}

	rates := Rates{Date: date, Rates: make(map[string]decimal.Decimal)}
	for currency, id := range currencyIDs {
		raw := strings.TrimSpace(section.Find("#" + id + " strong").First().Text())
		if raw == "" {
			continue
		}
		rate, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return Rates{}, fmt.Errorf("decimal.NewFromString(%q) -> %w", raw, err)
		}
		rates.Rates[currency] = rate
	}

	if _, ok = rates.USD(); !ok {
		return Rates{}, ErrMissingUSD
	}

	return rates, nil
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext() -> %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client.Do() -> %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return resp.Body, nil
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError

	return errors.As(err, &verifyErr) || errors.As(err, &unknownAuthority) || errors.As(err, &hostname)
}

func insecure(client *http.Client) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &http.Client{
		Transport: transport,
		Timeout:   client.Timeout,
	}
}

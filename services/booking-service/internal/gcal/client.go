package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const DefaultCalendarID = "primary"

// Event is an appointment as it should appear in the shop's calendar.
type Event struct {
	CustomerName  string
	CustomerEmail string
	Service       string
	Start         time.Time
	End           time.Time
	Timezone      string
}

// Grant is the stored OAuth state for one shop.
type Grant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

var ErrNoRefreshToken = errors.New("shop has no google refresh token")

// Client inserts events on behalf of shops. Each call builds its own token source from the
// shop's grant.
type Client struct {
	creds      Credentials
	calendarID string
	httpClient *http.Client
}

func NewClient(creds Credentials, calendarID string, httpClient *http.Client) *Client {
	if strings.TrimSpace(calendarID) == "" {
		calendarID = DefaultCalendarID
	}
	return &Client{creds: creds, calendarID: calendarID, httpClient: httpClient}
}

// InsertEvent creates ev and returns the Google event id together with the token in effect
// after the call, which differs from grant when it had to be refreshed.
func (c *Client) InsertEvent(ctx context.Context, grant Grant, ev Event) (string, *oauth2.Token, error) {
	if grant.RefreshToken == "" {
		return "", nil, ErrNoRefreshToken
	}
	cfg, err := NewOAuthConfig(c.creds)
	if err != nil {
		return "", nil, err
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    grant.TokenType,
		Expiry:       grant.Expiry,
	})
	tok, err := src.Token()
	if err != nil {
		return "", nil, fmt.Errorf("refresh google token: %w", err)
	}

	opt := option.WithTokenSource(oauth2.StaticTokenSource(tok))
	if c.httpClient != nil {
		opt = option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)))
	}
	svc, err := calendar.NewService(ctx, opt)
	if err != nil {
		return "", nil, fmt.Errorf("calendar service: %w", err)
	}

	created, err := svc.Events.Insert(c.calendarID, BuildEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", tok, fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, tok, nil
}

// BuildEvent renders the calendar entry for an appointment.
func BuildEvent(ev Event) *calendar.Event {
	tz := ev.Timezone
	return &calendar.Event{
		Summary:     "Appointment - " + ev.CustomerName,
		Description: fmt.Sprintf("Service: %s\nCustomer: %s\nEmail: %s", ev.Service, ev.CustomerName, ev.CustomerEmail),
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}
}

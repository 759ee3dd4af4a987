// Package gcal connects shops to Google Calendar: the OAuth consent flow and event insertion.
package gcal

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

var ErrNotConfigured = errors.New("google oauth is not configured")

// Credentials are the OAuth client settings. They are passed explicitly on every call; no
// process-wide OAuth client exists.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != "" && strings.TrimSpace(c.RedirectURL) != ""
}

// NewOAuthConfig builds a short-lived config for the calendar.events scope.
func NewOAuthConfig(c Credentials) (*oauth2.Config, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}, nil
}

// AuthCodeURL asks for offline access and forces the consent screen so Google always returns a
// refresh token.
func AuthCodeURL(c Credentials, state string) (string, error) {
	cfg, err := NewOAuthConfig(c)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token. httpClient may be nil.
func Exchange(ctx context.Context, c Credentials, code string, httpClient *http.Client) (*oauth2.Token, error) {
	cfg, err := NewOAuthConfig(c)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return cfg.Exchange(ctx, code)
}

// GrantedScope reads the "scope" extra Google returns with a token.
func GrantedScope(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if s, ok := tok.Extra("scope").(string); ok {
		return s
	}
	return ""
}

package regenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
)

// Envelope is the body shape of every successful API response
type Envelope[T any] struct {
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list-all response
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	ExpiresIn    int64                `json:"expires_in"`
	User         entities.UserProfile `json:"user"`
}

// LogResult is the committed entry and the profile totals after it
type LogResult struct {
	Entry   entities.WasteEntry  `json:"entry"`
	Profile entities.UserProfile `json:"profile"`
}

// FacilityQuery filters the recycling center list
type FacilityQuery struct {
	Region        string
	WasteType     string
	FacilityTypes []string
	ActiveOnly    *bool
	Latitude      *float64
	Longitude     *float64
	Page          int
	PerPage       int
}

// Client talks to the ReGen HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	validator  *waste.Validator
	refreshMu  sync.Mutex
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default 10s-timeout HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithValidator replaces the default UTC validator
func WithValidator(v *waste.Validator) Option {
	return func(c *Client) { c.validator = v }
}

// NewClient creates a client for baseURL (the server root, without /api)
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		session:   session,
		validator: waste.NewValidator(nil, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the client's session store
func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and signs in
func (c *Client) Register(ctx context.Context, email, password, name, location string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password, "name": name, "location": location}
	return c.authenticate(ctx, "/api/auth/register", body)
}

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*AuthResult, error) {
	out := &AuthResult{}
	if err := c.do(ctx, http.MethodPost, path, body, out, false); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, malformed("missing access_token")
	}
	c.session.setTokens(out.AccessToken, out.RefreshToken)
	c.session.setProfile(out.User)
	return out, nil
}

// Me fetches the current profile and stores it in the session
func (c *Client) Me(ctx context.Context) (*entities.UserProfile, error) {
	out := &entities.UserProfile{}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, out, true); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, malformed("profile has no id")
	}
	c.session.setProfile(*out)
	return out, nil
}

// UpdateProfile edits name and location. Totals are server-maintained and
// cannot be sent.
func (c *Client) UpdateProfile(ctx context.Context, name, location *string) (*entities.UserProfile, error) {
	body := map[string]*string{}
	if name != nil {
		body["name"] = name
	}
	if location != nil {
		body["location"] = location
	}
	out := &entities.UserProfile{}
	if err := c.do(ctx, http.MethodPut, "/api/auth/profile", body, out, true); err != nil {
		return nil, err
	}
	c.session.setProfile(*out)
	return out, nil
}

// LogWaste validates draft locally and submits it. Validation failures are
// returned before any request is sent. On success the session profile is
// replaced with the committed totals.
func (c *Client) LogWaste(ctx context.Context, draft waste.Draft) (*LogResult, error) {
	normalized, err := c.validator.Validate(draft)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"waste_type":          normalized.WasteType,
		"weight":              normalized.WeightKg,
		"collection_location": normalized.CollectionLocation,
		"region":              normalized.Region,
	}
	if normalized.ImageURL != "" {
		body["image_url"] = normalized.ImageURL
	}
	if normalized.CollectionDate != nil {
		body["collection_date"] = normalized.CollectionDate.Format("2006-01-02")
	}
	if normalized.FacilityID != "" {
		body["nearest_facility_id"] = normalized.FacilityID
	}

	out := &LogResult{}
	if err := c.do(ctx, http.MethodPost, "/api/waste-logs", body, out, true); err != nil {
		return nil, err
	}
	if out.Entry.ID == "" {
		return nil, malformed("created entry has no id")
	}
	c.session.setProfile(out.Profile)
	return out, nil
}

// ListWasteLogs returns the caller's entries, newest first. limit <= 0 means all.
func (c *Client) ListWasteLogs(ctx context.Context, limit int) ([]entities.WasteEntry, error) {
	path := "/api/waste-logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []entities.WasteEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllWasteLogs returns one page of every user's entries (admin)
func (c *Client) ListAllWasteLogs(ctx context.Context, page, perPage int, status string) ([]entities.WasteEntry, *Pagination, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	if status != "" {
		query.Set("status", status)
	}
	env, err := doEnvelope[json.RawMessage](ctx, c, http.MethodGet, withQuery("/api/waste-logs/all", query), nil)
	if err != nil {
		return nil, nil, err
	}
	var out []entities.WasteEntry
	if err := decodeData(env.Data, &out); err != nil {
		return nil, nil, err
	}
	return out, env.Pagination, nil
}

// UpdateStatus moves an entry forward (admin)
func (c *Client) UpdateStatus(ctx context.Context, id string, status entities.CollectionStatus) (*entities.WasteEntry, error) {
	out := &entities.WasteEntry{}
	path := "/api/waste-logs/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"collection_status": string(status)}, out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteWasteLog removes an entry and refreshes the session profile, whose
// totals the server has just reduced.
func (c *Client) DeleteWasteLog(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/waste-logs/"+url.PathEscape(id), nil, nil, true); err != nil {
		return err
	}
	if _, err := c.Me(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to refresh profile after delete")
	}
	return nil
}

// ListFacilities lists recycling centers
func (c *Client) ListFacilities(ctx context.Context, q FacilityQuery) ([]entities.Facility, *Pagination, error) {
	query := url.Values{}
	if q.Region != "" {
		query.Set("region", q.Region)
	}
	if q.WasteType != "" {
		query.Set("waste_type", q.WasteType)
	}
	if len(q.FacilityTypes) > 0 {
		query.Set("facility_type", strings.Join(q.FacilityTypes, ","))
	}
	if q.ActiveOnly != nil {
		query.Set("active_only", strconv.FormatBool(*q.ActiveOnly))
	}
	if q.Latitude != nil && q.Longitude != nil {
		query.Set("lat", strconv.FormatFloat(*q.Latitude, 'f', -1, 64))
		query.Set("lng", strconv.FormatFloat(*q.Longitude, 'f', -1, 64))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(q.PerPage))
	}
	env, err := doEnvelope[json.RawMessage](ctx, c, http.MethodGet, withQuery("/api/recycling-centers", query), nil)
	if err != nil {
		return nil, nil, err
	}
	var out []entities.Facility
	if err := decodeData(env.Data, &out); err != nil {
		return nil, nil, err
	}
	return out, env.Pagination, nil
}

// FindNearby returns active facilities in region accepting wasteType
func (c *Client) FindNearby(ctx context.Context, region, wasteType string) ([]entities.Facility, error) {
	query := url.Values{"region": {region}, "waste_type": {wasteType}}
	var out []entities.Facility
	if err := c.do(ctx, http.MethodGet, withQuery("/api/recycling-centers/nearby", query), nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateFacility adds a recycling center (admin)
func (c *Client) CreateFacility(ctx context.Context, facility entities.Facility) (*entities.Facility, error) {
	out := &entities.Facility{}
	if err := c.do(ctx, http.MethodPost, "/api/recycling-centers", facility, out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFacility replaces a recycling center (admin)
func (c *Client) UpdateFacility(ctx context.Context, id string, facility entities.Facility) (*entities.Facility, error) {
	out := &entities.Facility{}
	if err := c.do(ctx, http.MethodPut, "/api/recycling-centers/"+url.PathEscape(id), facility, out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFacility removes a recycling center (admin)
func (c *Client) DeleteFacility(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/recycling-centers/"+url.PathEscape(id), nil, nil, true)
}

// Leaderboard returns the top users by points
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	path := "/api/community/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []entities.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// Dashboard returns the caller's statistics
func (c *Client) Dashboard(ctx context.Context) (*entities.DashboardStats, error) {
	out := &entities.DashboardStats{}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// GlobalDashboard returns platform-wide totals
func (c *Client) GlobalDashboard(ctx context.Context) (*entities.GlobalStats, error) {
	out := &entities.GlobalStats{}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/global", nil, out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends one request and decodes the envelope's data into out. Authed
// requests that get a 401 refresh the token once and are replayed once.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	env, err := doEnvelope[json.RawMessage](ctx, c, method, path, body, authedOpt(authed))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeData(env.Data, out)
}

// decodeData unmarshals an envelope's data into out. A null or absent
// value is malformed: empty lists arrive as [].
func decodeData(data json.RawMessage, out interface{}) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return malformed("data is null")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return malformed("data does not match %T: %v", out, err)
	}
	return nil
}

type requestOpt func(*requestConfig)

type requestConfig struct {
	authed bool
}

func authedOpt(authed bool) requestOpt {
	return func(cfg *requestConfig) { cfg.authed = authed }
}

// doEnvelope sends a request and returns the decoded envelope. It is a
// function rather than a method because methods cannot take type parameters.
func doEnvelope[T any](ctx context.Context, c *Client, method, path string, body interface{}, opts ...requestOpt) (*Envelope[T], error) {
	cfg := requestConfig{authed: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	raw, status, err := c.send(ctx, method, path, payload, cfg.authed)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && cfg.authed {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		raw, status, err = c.send(ctx, method, path, payload, cfg.authed)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.session.clear()
			return nil, ErrSessionExpired
		}
	}

	if status < 200 || status >= 300 {
		return nil, httpError(status, raw)
	}
	return decodeEnvelope[T](raw)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, authed bool) ([]byte, int, error) {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if access, _ := c.session.Tokens(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &NetworkError{Method: method, URL: endpoint, Err: err}
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("regen api request")
	return raw, resp.StatusCode, nil
}

// refresh swaps the refresh token for a new pair. Any failure ends the session.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	_, refreshToken := c.session.Tokens()
	if refreshToken == "" {
		c.session.clear()
		return ErrSessionExpired
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	raw, status, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", payload, false)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return err
		}
		c.session.clear()
		return ErrSessionExpired
	}
	if status < 200 || status >= 300 {
		c.session.clear()
		return ErrSessionExpired
	}

	env, err := decodeEnvelope[AuthResult](raw)
	if err != nil || env.Data.AccessToken == "" {
		c.session.clear()
		return ErrSessionExpired
	}
	c.session.setTokens(env.Data.AccessToken, env.Data.RefreshToken)
	c.session.setProfile(env.Data.User)
	return nil
}

// decodeEnvelope rejects bodies that are not a JSON object with a data key
func decodeEnvelope[T any](raw []byte) (*Envelope[T], error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, malformed("body is not a JSON object")
	}
	if _, ok := fields["data"]; !ok {
		return nil, malformed("missing data field")
	}

	env := &Envelope[T]{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, malformed("%v", err)
	}
	return env, nil
}

func httpError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	return &HTTPError{StatusCode: status, Code: body.Error, Message: body.Message}
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

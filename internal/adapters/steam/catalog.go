// Package steam reads workshop items: details from the Steam Web API and
// installed identifiers from the local workshop manifest.
package steam

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"modmanager/internal/domain"
)

const (
	DefaultEndpoint = "https://api.steampowered.com"

	resultOK           = 1
	resultFileNotFound = 9
)

// Catalog calls ISteamRemoteStorage/GetPublishedFileDetails, one request
// per batch of ids.
type Catalog struct {
	BaseURL string
	APIKey  string
	http    *resty.Client
}

func NewCatalog(baseURL, apiKey string, timeout time.Duration) *Catalog {
	if baseURL == "" {
		baseURL = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Catalog{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		http:    resty.New().SetTimeout(timeout),
	}
}

type detailsResponse struct {
	Response struct {
		Result  int             `json:"result"`
		Details []publishedFile `json:"publishedfiledetails"`
	} `json:"response"`
}

type publishedFile struct {
	PublishedFileID string `json:"publishedfileid"`
	Result          int    `json:"result"`
	Creator         string `json:"creator"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	TimeCreated     int64  `json:"time_created"`
	TimeUpdated     int64  `json:"time_updated"`
	Subscriptions   int64  `json:"subscriptions"`
	Tags            []struct {
		Tag string `json:"tag"`
	} `json:"tags"`
	VoteData *struct {
		Score     float64 `json:"score"`
		VotesUp   int     `json:"votes_up"`
		VotesDown int     `json:"votes_down"`
	} `json:"vote_data"`
}

// FetchDetails returns one result per requested id, in request order. Ids
// the service leaves out of its answer come back as not found.
func (c *Catalog) FetchDetails(ctx context.Context, ids []string) ([]domain.FetchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	form := map[string]string{"itemcount": strconv.Itoa(len(ids))}
	for i, id := range ids {
		form[fmt.Sprintf("publishedfileids[%d]", i)] = id
	}
	req := c.http.R().SetContext(ctx).SetFormData(form)
	if c.APIKey != "" {
		req.SetQueryParam("key", c.APIKey)
	}
	var resp detailsResponse
	rr, err := req.SetResult(&resp).Post(c.BaseURL + "/ISteamRemoteStorage/GetPublishedFileDetails/v1/")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("steam: get published file details: %w", err)
	}
	if rr.IsError() {
		return nil, fmt.Errorf("steam: get published file details: %s", rr.Status())
	}

	byID := make(map[string]publishedFile, len(resp.Response.Details))
	for _, d := range resp.Response.Details {
		byID[d.PublishedFileID] = d
	}
	out := make([]domain.FetchResult, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		switch {
		case !ok:
			out = append(out, domain.FetchFailed(id, resultFileNotFound))
		case d.Result != resultOK:
			out = append(out, domain.FetchFailed(id, d.Result))
		default:
			out = append(out, domain.Fetched(d.record()))
		}
	}
	return out, nil
}

func (d publishedFile) record() domain.RemoteRecord {
	rec := domain.RemoteRecord{
		ID:            d.PublishedFileID,
		Title:         d.Title,
		Description:   d.Description,
		Creator:       d.Creator,
		Subscriptions: d.Subscriptions,
		CreatedAt:     unix(d.TimeCreated),
		UpdatedAt:     unix(d.TimeUpdated),
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	for _, t := range d.Tags {
		if t.Tag != "" {
			rec.Tags = append(rec.Tags, t.Tag)
		}
	}
	if d.VoteData != nil {
		// score is 0..1; the catalog shows five stars
		rec.Rating = d.VoteData.Score * 5
	}
	return rec
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

package census

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prairiefire/wildfire-evacs/internal/normalize"
)

// GNBCBaseURL is the geogratis geoname query endpoint.
const GNBCBaseURL = "https://geogratis.gc.ca/services/geoname/en/geonames"

// gnbcThemes are the designated-place categories worth matching evacuation
// notices against.
var gnbcThemes = []string{"LAKE", "PARK", "POPULATED PLACE"}

//go:embed fallback_gnbc_manitoba.json
var fallbackGNBC []byte

// gnbcResponse mirrors the geogratis JSON envelope.
type gnbcResponse struct {
	Items []gnbcItem `json:"items"`
}

type gnbcItem struct {
	Name     string `json:"name"`
	Generic  string `json:"generic"`
	Theme    string `json:"theme"`
	Province string `json:"province"`
}

// GNBCSummary reports how the designated-places list was obtained.
type GNBCSummary struct {
	Source       string `json:"source"`
	UsedFallback bool   `json:"used_fallback"`
	Places       int    `json:"places"`
}

// LoadDesignatedPlaces builds a supplementary reference of designated
// places (lakes, parks, unincorporated communities) from the GNBC geoname
// service, falling back to an embedded Manitoba list when the service is
// unreachable. Entries carry synthetic geo ids (GNBC_<THEME>_<n>) and no
// population figures.
func LoadDesignatedPlaces(client *http.Client) (*Reference, GNBCSummary) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	items, err := fetchGNBC(client)
	if err != nil {
		items = fallbackItems()
		ref := buildDesignatedReference(items)
		return ref, GNBCSummary{Source: "embedded fallback", UsedFallback: true, Places: len(ref.Entries)}
	}

	ref := buildDesignatedReference(items)
	return ref, GNBCSummary{Source: GNBCBaseURL, Places: len(ref.Entries)}
}

// fetchGNBC queries the geoname service once per theme.
func fetchGNBC(client *http.Client) ([]gnbcItem, error) {
	all := make([]gnbcItem, 0)

	for _, theme := range gnbcThemes {
		query := url.Values{
			"q":        {"*"},
			"province": {"MB"},
			"theme":    {theme},
			"num":      {"1000"},
			"output":   {"summary"},
		}
		endpoint := GNBCBaseURL + "?" + query.Encode()

		var payload gnbcResponse
		operation := func() error {
			resp, err := client.Get(endpoint)
			if err != nil {
				return fmt.Errorf("fetching gnbc theme %s: %w", theme, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&payload)
		}

		if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)); err != nil {
			return nil, err
		}
		all = append(all, payload.Items...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no designated places retrieved")
	}
	return all, nil
}

// fallbackItems decodes the embedded designated-places list. The embedded
// file is part of the build; a decode failure would be a packaging bug, so
// it degrades to an empty list rather than failing the run.
func fallbackItems() []gnbcItem {
	var payload gnbcResponse
	if err := json.Unmarshal(fallbackGNBC, &payload); err != nil {
		return nil
	}
	return payload.Items
}

// buildDesignatedReference converts geoname items into reference entries
// with synthetic geo ids.
func buildDesignatedReference(items []gnbcItem) *Reference {
	entries := make([]*Geography, 0, len(items))
	for i, item := range items {
		if item.Name == "" {
			continue
		}
		entries = append(entries, &Geography{
			GeoID:          fmt.Sprintf("GNBC_%s_%d", sanitizeTheme(item.Theme), i),
			AltGeoCode:     "DESIGNATED_PLACE",
			Name:           item.Name,
			NormalizedName: normalize.Name(item.Name),
		})
	}
	return newReference(entries)
}

// sanitizeTheme upper-cases a theme and replaces spaces for id use.
func sanitizeTheme(theme string) string {
	out := make([]rune, 0, len(theme))
	for _, r := range theme {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		case r == ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

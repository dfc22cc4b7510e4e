/* models.go
 * This file contains the wire models used by the external package when decoding responses from the ranking and
 * player apis, and the metadata read from tournament pages
 */

package external

import (
	"encoding/json"
	"strconv"
	"strings"
)

// rankingItem is one row of a ranking page
type rankingItem struct {
	Ranking json.RawMessage `json:"ranking"`
	Player  struct {
		FullName    string `json:"fullName"`
		CountryCode string `json:"countryCode"`
	} `json:"player"`
}

// rank returns the numeric rank, or 0 when the value is missing or not a number
func (r rankingItem) rank() int {
	raw := strings.Trim(strings.TrimSpace(string(r.Ranking)), `"`)
	if raw == "" || raw == "null" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// rankingPage is the paged response shape. Some responses are a bare array of items instead
type rankingPage struct {
	Content []rankingItem `json:"content"`
}

// decodeRankingPage accepts either response shape
func decodeRankingPage(body []byte) ([]rankingItem, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []rankingItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page rankingPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// playerInfo is the player object returned by the player api
type playerInfo struct {
	ID          json.Number `json:"id"`
	FullName    string      `json:"fullName"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	CountryCode string      `json:"countryCode"`
}

func (p playerInfo) name() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// playerMatch is the subset of a match row that names both sides
type playerMatch struct {
	PlayerIDA        json.Number `json:"PlayerIDA"`
	PlayerNameFirstA string      `json:"PlayerNameFirstA"`
	PlayerNameLastA  string      `json:"PlayerNameLastA"`
	PlayerCountryA   string      `json:"PlayerCountryA"`
	PlayerIDB        json.Number `json:"PlayerIDB"`
	PlayerNameFirstB string      `json:"PlayerNameFirstB"`
	PlayerNameLastB  string      `json:"PlayerNameLastB"`
	PlayerCountryB   string      `json:"PlayerCountryB"`
}

// playerMatchesResponse is the most recent match lookup for a player
type playerMatchesResponse struct {
	Player  playerInfo    `json:"player"`
	Matches []playerMatch `json:"matches"`
}

// TournamentMeta is what a tournament page says about itself
type TournamentMeta struct {
	// Name is the event description with the word "Tournament" removed. Empty when the page has none
	Name string
	// StartDate is the raw start date string, parsed later with a fallback
	StartDate string
}

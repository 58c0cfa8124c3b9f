package mediawiki

import (
	"encoding/json"
	"strconv"
)

// envelope is the part every api.php response may carry.
type envelope struct {
	Error    *APIError                  `json:"error"`
	Warnings map[string]json.RawMessage `json:"warnings"`
}

type loginResponse struct {
	envelope
	Login struct {
		Result   string `json:"result"`
		Reason   string `json:"reason"`
		Token    string `json:"token"`
		Username string `json:"lgusername"`
		UserID   int64  `json:"lguserid"`
	} `json:"login"`
}

type revision struct {
	Timestamp string  `json:"timestamp"`
	Content   *string `json:"*"`
	Slots     map[string]struct {
		Content *string `json:"*"`
	} `json:"slots"`
}

// text returns the revision content for both the legacy and the slot based
// response layout.
func (r revision) text() (string, bool) {
	if r.Content != nil {
		return *r.Content, true
	}
	if main, ok := r.Slots["main"]; ok && main.Content != nil {
		return *main.Content, true
	}
	return "", false
}

type pageInfo struct {
	PageID    int64      `json:"pageid"`
	Namespace int        `json:"ns"`
	Title     string     `json:"title"`
	Revisions []revision `json:"revisions"`
	EditToken string     `json:"edittoken"`

	// presence flags, the value is always ""
	Missing       json.RawMessage `json:"missing"`
	Invalid       json.RawMessage `json:"invalid"`
	InvalidReason string          `json:"invalidreason"`
}

func (p pageInfo) notFound() bool {
	return p.Missing != nil || p.Invalid != nil
}

type queryResponse struct {
	envelope
	Query struct {
		Pages  map[string]pageInfo `json:"pages"`
		Tokens struct {
			CsrfToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

// firstPage returns the only page of a single title query. Page ids are the
// map keys, missing pages are keyed by negative numbers.
func (q queryResponse) firstPage() (string, pageInfo, bool) {
	for id, page := range q.Query.Pages {
		return id, page, true
	}
	return "", pageInfo{}, false
}

type listEntry struct {
	PageID    int64  `json:"pageid"`
	Namespace int    `json:"ns"`
	Title     string `json:"title"`
}

type listResponse struct {
	envelope
	Query         map[string]json.RawMessage            `json:"query"`
	QueryContinue map[string]map[string]json.RawMessage `json:"query-continue"`
	Continue      map[string]json.RawMessage            `json:"continue"`
}

type editResponse struct {
	envelope
	Edit *struct {
		Result       string          `json:"result"`
		PageID       int64           `json:"pageid"`
		Title        string          `json:"title"`
		OldRevID     int64           `json:"oldrevid"`
		NewRevID     int64           `json:"newrevid"`
		NewTimestamp string          `json:"newtimestamp"`
		NoChange     json.RawMessage `json:"nochange"`
	} `json:"edit"`
}

type parseResponse struct {
	envelope
	Parse struct {
		Title  string `json:"title"`
		PageID int64  `json:"pageid"`
		Text   struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
}

type logoutResponse struct {
	envelope
}

// rawString turns a continuation value into the string sent back to the
// wiki, values are either strings or numbers.
func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

package models

// ZoneResponse lists the records served from the authoritative store.
type ZoneResponse struct {
	Source  string       `json:"source"` // "file", "database" or "none"
	Version int64        `json:"version,omitempty"`
	Records []ZoneRecord `json:"records"`
	Count   int          `json:"count"`
}

// ZoneRecord represents a single record in the zone.
type ZoneRecord struct {
	Name  string `json:"name"`
	TTL   int32  `json:"ttl"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ZoneLookupResponse is the result of a store lookup.
type ZoneLookupResponse struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Found  bool        `json:"found"`
	Record *ZoneRecord `json:"record,omitempty"`
}

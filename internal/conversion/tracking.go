package conversion

// trackingWhitelist is the fixed set of attribution keys forwarded to the
// ledger sinks. Anything else captured at checkout is dropped here.
var trackingWhitelist = []string{
	"src", "sck",
	"utm_source", "utm_campaign", "utm_medium", "utm_content", "utm_term",
	"gclid", "gbraid", "wbraid", "fbclid", "xcod",
	"keyword", "device", "network",
	"gad_source", "gad_campaignid",
	"ctax",
}

// FilterTracking reduces raw tracking parameters to the whitelist, with nil
// for absent keys. gad_source and gad_campaignid fall back to utm_source and
// utm_campaign when not captured directly.
func FilterTracking(raw map[string]string) map[string]*string {
	out := make(map[string]*string, len(trackingWhitelist))
	get := func(key string) *string {
		if v, ok := raw[key]; ok && v != "" && v != "null" {
			return &v
		}
		return nil
	}
	for _, key := range trackingWhitelist {
		out[key] = get(key)
	}
	if out["gad_source"] == nil {
		out["gad_source"] = out["utm_source"]
	}
	if out["gad_campaignid"] == nil {
		out["gad_campaignid"] = out["utm_campaign"]
	}
	return out
}

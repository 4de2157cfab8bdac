//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, and timestamp).  These
//  structs are inert: safe to log or JSON-encode.
//
//  Dependencies
//  • internal/ua                        (wraps github.com/avct/uasurfer)
//  • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/formdesk/internal/ua"
)

// Geo holds IP-based geolocation hints.  They are best-effort and empty when
// no database is configured or it has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is attached to the request context by Enricher.
type RequestInfo struct {
	UA          ua.Info
	PrimaryLang string // first tag from Accept-Language ("ja", "en-us", …)
	Geo         Geo
	Timestamp   time.Time
}

// LogFields flattens the attributes submission logs carry.
func (ri *RequestInfo) LogFields() []any {
	if ri == nil {
		return nil
	}
	return []any{
		"browser", ri.UA.Browser,
		"device", ri.UA.Device,
		"bot", ri.UA.IsBot,
		"lang", ri.PrimaryLang,
		"country", ri.Geo.CountryISO,
	}
}

// OpenGeo opens a GeoLite2-City database.  An empty path returns nil, nil:
// geolocation is optional.
func OpenGeo(path string) (*geoip2.Reader, error) {
	if path == "" {
		return nil, nil
	}
	return geoip2.Open(path)
}

type ctxKey struct{}

// FromContext returns the pointer stored by Enricher, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

// lookupGeo returns best-effort Geo data.  geo may be nil.
func lookupGeo(geo *geoip2.Reader, ip net.IP) Geo {
	if geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

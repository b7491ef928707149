package weburl

import (
	"net/url"
	"strings"
)

// Param is one query key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params keeps query parameters in insertion order with unique keys.
type Params []Param

// ParseQuery decodes a raw query string.  A repeated key keeps its first
// position and its last value.  Undecodable pairs are kept verbatim.
func ParseQuery(raw string) Params {
	var p Params
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		p.Set(k, v)
	}
	return p
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Value returns the value for key or "".
func (p Params) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Set replaces the value of key in place, or appends it.
func (p *Params) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Del removes key.
func (p *Params) Del(key string) {
	out := (*p)[:0]
	for _, kv := range *p {
		if kv.Key != key {
			out = append(out, kv)
		}
	}
	*p = out
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Merge sets every pair of other on p, in other's order.
func (p *Params) Merge(other Params) {
	for _, kv := range other {
		p.Set(kv.Key, kv.Value)
	}
}

// Map returns the parameters as an unordered map.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// Values converts to url.Values for callers that need the stdlib type.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Set(kv.Key, kv.Value)
	}
	return v
}

// Encode serializes in order.  Empty values keep their "=".
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

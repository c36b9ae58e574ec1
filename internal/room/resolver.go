package room

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strconv"
)

// Resolver maps a budget owner to one room host. Every process configured
// with the same hosts picks the same host for an owner, and removing a host
// only moves the owners that lived on it.
type Resolver struct {
	hosts []*url.URL
}

func NewResolver(hosts []string) (*Resolver, error) {
	if len(hosts) == 0 {
		return nil, errors.New("no room hosts configured")
	}

	r := &Resolver{}
	for _, h := range hosts {
		u, err := url.Parse(h)
		if err != nil {
			return nil, fmt.Errorf("parse room host %q: %w", h, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("room host %q must be an http(s) url", h)
		}
		r.hosts = append(r.hosts, u)
	}

	return r, nil
}

func (r *Resolver) HostFor(ownerId int) *url.URL {
	var best *url.URL
	var bestScore uint64
	key := strconv.Itoa(ownerId)

	for _, u := range r.hosts {
		h := fnv.New64a()
		h.Write([]byte(u.String()))
		h.Write([]byte{0})
		h.Write([]byte(key))
		if score := h.Sum64(); best == nil || score > bestScore {
			best, bestScore = u, score
		}
	}

	return best
}

// URL returns the absolute url of path on the owner's host.
func (r *Resolver) URL(ownerId int, path string) *url.URL {
	u := *r.HostFor(ownerId)
	u.Path = singleJoiningSlash(u.Path, path)
	return &u
}

func singleJoiningSlash(a, b string) string {
	switch {
	case len(a) > 0 && a[len(a)-1] == '/' && len(b) > 0 && b[0] == '/':
		return a + b[1:]
	case (len(a) == 0 || a[len(a)-1] != '/') && (len(b) == 0 || b[0] != '/'):
		return a + "/" + b
	}
	return a + b
}

func BroadcastPath(ownerId int) string {
	return "/rooms/" + strconv.Itoa(ownerId) + "/broadcast"
}

func WebSocketPath(ownerId int) string {
	return "/rooms/" + strconv.Itoa(ownerId) + "/websocket"
}
